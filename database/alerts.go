package database

import (
	"context"
	"fmt"

	"NucleusBot/models"
)

func (s *Store) AddAlert(ctx context.Context, sub *models.AlertSubscription) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("add alert for class %s in %s: %w", sub.ClassID, sub.ChannelID, translate(err))
	}
	return nil
}

func (s *Store) RemoveAlert(ctx context.Context, classID, channelID string) error {
	result := s.db.WithContext(ctx).
		Where("class_id = ? AND channel_id = ?", classID, channelID).
		Delete(&models.AlertSubscription{})
	if result.Error != nil {
		return fmt.Errorf("remove alert for class %s in %s: %w", classID, channelID, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("remove alert for class %s in %s: %w", classID, channelID, ErrNotFound)
	}
	return nil
}

// AlertsForClass returns every destination registered for a class; an empty slice is not an error.
func (s *Store) AlertsForClass(ctx context.Context, classID string) ([]models.AlertSubscription, error) {
	var subs []models.AlertSubscription
	if err := s.db.WithContext(ctx).Where("class_id = ?", classID).Order("id").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list alerts for class %s: %w", classID, translate(err))
	}
	return subs, nil
}
