package models

import (
	"time"
)

// CommandStatistics aggregates one command's usage for one UTC day.
type CommandStatistics struct {
	ID            uint      `gorm:"primarykey"`
	Date          time.Time `gorm:"uniqueIndex:idx_command_day"`
	CommandName   string    `gorm:"uniqueIndex:idx_command_day;size:32"`
	UsageCount    int
	SuccessCount  int
	ErrorCount    int
	AverageTimeMs float64
	UpdatedAt     time.Time
}
