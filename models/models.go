package models

import (
	"time"

	"gorm.io/gorm"
)

type Account struct {
	gorm.Model
	Username    string    `gorm:"uniqueIndex;size:32"` // Portal roll number.
	Password    string    // Only stored for alert accounts so the poller can log in again.
	Cookies     string    `gorm:"type:text"` // JSON object of cookie name to value.
	ClassID     string    `gorm:"index;size:16"`
	IsAlert     bool      `gorm:"default:false"` // Alert accounts are polled for new items.
	LastRefresh time.Time // When the cookies were last minted by a login.
}

// DiscordLink ties a Discord user to the portal account they logged in with.
type DiscordLink struct {
	gorm.Model
	DiscordID string `gorm:"uniqueIndex;size:32"`
	Username  string `gorm:"index;size:32"`
}

// Watermark is the last-seen item time for one course of a class.
type Watermark struct {
	ID                    uint   `gorm:"primarykey"`
	ClassID               string `gorm:"uniqueIndex:idx_class_course;size:16"`
	CourseID              string `gorm:"uniqueIndex:idx_class_course;size:64"`
	CourseName            string
	LastCheckedAssignment time.Time
	LastCheckedResource   time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type AlertSubscription struct {
	ID        uint   `gorm:"primarykey"`
	ClassID   string `gorm:"uniqueIndex:idx_alert_class_channel;size:16"`
	ChannelID string `gorm:"uniqueIndex:idx_alert_class_channel;size:32"`
	GuildID   string `gorm:"size:32"`
	RoleID    string `gorm:"size:32"` // Empty when no role should be pinged.
	CreatedAt time.Time
}

// UserAuth grants a permission level to a Discord user or role.
type UserAuth struct {
	ItemID    string `gorm:"primarykey;size:32"`
	Level     int
	Role      bool
	ServerID  string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PermissionName struct {
	Level int `gorm:"primarykey;autoIncrement:false"`
	Name  string
}

// ChannelAuth whitelists a channel for gated commands.
type ChannelAuth struct {
	ID        uint   `gorm:"primarykey"`
	ServerID  string `gorm:"uniqueIndex:idx_channel_auth;size:32"`
	ChannelID string `gorm:"uniqueIndex:idx_channel_auth;size:32"`
	CreatedAt time.Time
}

type ItemKind string

const (
	ItemAssignment ItemKind = "assignment"
	ItemResource   ItemKind = "resource"
)

// AllModels lists every table the bot owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Account{},
		&DiscordLink{},
		&Watermark{},
		&AlertSubscription{},
		&UserAuth{},
		&PermissionName{},
		&ChannelAuth{},
		&CommandStatistics{},
	}
}
