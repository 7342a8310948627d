package database

import (
	"context"
	"database/sql"
	"fmt"

	"NucleusBot/models"
)

type AuthEntry struct {
	models.UserAuth
	Name string
}

// PermissionLevel returns the highest level granted to any of ids.
// found is false when none of them has a grant.
func (s *Store) PermissionLevel(ctx context.Context, ids ...string) (level int, found bool, err error) {
	if len(ids) == 0 {
		return 0, false, fmt.Errorf("permission level: no ids given")
	}

	var max sql.NullInt64
	err = s.db.WithContext(ctx).Model(&models.UserAuth{}).
		Select("MAX(level)").
		Where("item_id IN ?", ids).
		Row().Scan(&max)
	if err != nil {
		return 0, false, fmt.Errorf("permission level: %w", translate(err))
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

func (s *Store) PermissionName(ctx context.Context, level int) (string, error) {
	var name models.PermissionName
	if err := s.db.WithContext(ctx).Where("level = ?", level).First(&name).Error; err != nil {
		return "", fmt.Errorf("permission name %d: %w", level, translate(err))
	}
	return name.Name, nil
}

func (s *Store) AddAuth(ctx context.Context, auth *models.UserAuth) error {
	if err := s.db.WithContext(ctx).Create(auth).Error; err != nil {
		return fmt.Errorf("add auth %s: %w", auth.ItemID, translate(err))
	}
	return nil
}

func (s *Store) ChangeAuth(ctx context.Context, itemID string, level int) error {
	result := s.db.WithContext(ctx).Model(&models.UserAuth{}).Where("item_id = ?", itemID).Update("level", level)
	if result.Error != nil {
		return fmt.Errorf("change auth %s: %w", itemID, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("change auth %s: %w", itemID, ErrNotFound)
	}
	return nil
}

func (s *Store) ListAuth(ctx context.Context, includeRoles bool) ([]AuthEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.UserAuth{}).
		Select("user_auths.*, permission_names.name").
		Joins("LEFT JOIN permission_names ON permission_names.level = user_auths.level").
		Order("user_auths.level DESC, user_auths.item_id")
	if !includeRoles {
		query = query.Where("user_auths.role = ?", false)
	}

	var entries []AuthEntry
	if err := query.Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("list auth: %w", translate(err))
	}
	return entries, nil
}

func (s *Store) IsWhitelisted(ctx context.Context, serverID, channelID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ChannelAuth{}).
		Where("server_id = ? AND channel_id = ?", serverID, channelID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("whitelist check %s/%s: %w", serverID, channelID, translate(err))
	}
	return count > 0, nil
}

func (s *Store) AddWhitelist(ctx context.Context, serverID, channelID string) error {
	entry := models.ChannelAuth{ServerID: serverID, ChannelID: channelID}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("whitelist add %s/%s: %w", serverID, channelID, translate(err))
	}
	return nil
}

func (s *Store) RemoveWhitelist(ctx context.Context, serverID, channelID string) error {
	result := s.db.WithContext(ctx).
		Where("server_id = ? AND channel_id = ?", serverID, channelID).
		Delete(&models.ChannelAuth{})
	if result.Error != nil {
		return fmt.Errorf("whitelist remove %s/%s: %w", serverID, channelID, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("whitelist remove %s/%s: %w", serverID, channelID, ErrNotFound)
	}
	return nil
}
