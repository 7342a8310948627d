package database

import (
	"context"
	"fmt"
	"time"

	"NucleusBot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordCommand adds one run of name to today's usage row. The row is
// created or bumped by a single upsert so concurrent runs never lose a count.
func (s *Store) RecordCommand(ctx context.Context, name string, success bool, elapsed time.Duration) error {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	ms := float64(elapsed.Milliseconds())

	succeeded, failed := 0, 0
	if success {
		succeeded = 1
	} else {
		failed = 1
	}

	stats := models.CommandStatistics{
		Date:          day,
		CommandName:   name,
		UsageCount:    1,
		SuccessCount:  succeeded,
		ErrorCount:    failed,
		AverageTimeMs: ms,
		UpdatedAt:     time.Now().UTC(),
	}

	// average_time_ms comes first: MySQL applies the assignments in order
	// and it must see the old usage_count.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "command_name"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "average_time_ms"}, Value: gorm.Expr("average_time_ms + (? - average_time_ms) / (usage_count + 1)", ms)},
			{Column: clause.Column{Name: "usage_count"}, Value: gorm.Expr("usage_count + 1")},
			{Column: clause.Column{Name: "success_count"}, Value: gorm.Expr("success_count + ?", succeeded)},
			{Column: clause.Column{Name: "error_count"}, Value: gorm.Expr("error_count + ?", failed)},
			{Column: clause.Column{Name: "updated_at"}, Value: stats.UpdatedAt},
		},
	}).Create(&stats).Error
	if err != nil {
		return fmt.Errorf("record command %s: %w", name, translate(err))
	}
	return nil
}

// CommandStats returns the usage rows of one UTC day, most used first.
func (s *Store) CommandStats(ctx context.Context, day time.Time) ([]models.CommandStatistics, error) {
	day = day.UTC().Truncate(24 * time.Hour)

	var stats []models.CommandStatistics
	err := s.db.WithContext(ctx).
		Where("date = ?", day).
		Order("usage_count DESC, command_name").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("command stats for %s: %w", day.Format("2006-01-02"), translate(err))
	}
	return stats, nil
}
