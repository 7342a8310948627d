package database

import (
	"context"
	"fmt"
	"time"

	"NucleusBot/models"

	"gorm.io/gorm/clause"
)

// CreateAccount inserts a new account. ErrDuplicate if the username exists.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account %s: %w", account.Username, translate(err))
	}
	return nil
}

// UpsertAccount stores fresh cookies for the account, creating it if needed.
// Alert accounts also overwrite the stored password and class; a normal
// user login never clears what an alert registration stored.
func (s *Store) UpsertAccount(ctx context.Context, account *models.Account) error {
	columns := []string{"cookies", "last_refresh", "updated_at"}
	if account.IsAlert {
		columns = append(columns, "password", "class_id", "is_alert")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(account).Error
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", account.Username, translate(err))
	}
	return nil
}

func (s *Store) Account(ctx context.Context, username string) (models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		return models.Account{}, fmt.Errorf("get account %s: %w", username, translate(err))
	}
	return account, nil
}

// AlertAccounts snapshots every alert account for one poll cycle.
func (s *Store) AlertAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Where("is_alert = ?", true).Order("username").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list alert accounts: %w", translate(err))
	}
	return accounts, nil
}

func (s *Store) AlertAccountForClass(ctx context.Context, classID string) (models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("is_alert = ? AND class_id = ?", true, classID).
		Order("last_refresh DESC").
		First(&account).Error
	if err != nil {
		return models.Account{}, fmt.Errorf("get alert account for class %s: %w", classID, translate(err))
	}
	return account, nil
}

// SaveRefreshedSession overwrites the cookies of one account in place.
func (s *Store) SaveRefreshedSession(ctx context.Context, username, cookies string) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{
			"cookies":      cookies,
			"last_refresh": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("save session for %s: %w", username, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("save session for %s: %w", username, ErrNotFound)
	}
	return nil
}

// LinkDiscordUser points a Discord user at a portal account, replacing any previous link.
func (s *Store) LinkDiscordUser(ctx context.Context, discordID, username string) error {
	link := models.DiscordLink{DiscordID: discordID, Username: username}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "discord_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(&link).Error
	if err != nil {
		return fmt.Errorf("link discord user %s: %w", discordID, translate(err))
	}
	return nil
}

func (s *Store) AccountForDiscordUser(ctx context.Context, discordID string) (models.Account, error) {
	var link models.DiscordLink
	if err := s.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&link).Error; err != nil {
		return models.Account{}, fmt.Errorf("get link for %s: %w", discordID, translate(err))
	}
	return s.Account(ctx, link.Username)
}
