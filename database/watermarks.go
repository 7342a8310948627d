package database

import (
	"context"
	"fmt"
	"time"

	"NucleusBot/models"
)

type Course struct {
	ID   string
	Name string
}

// RegisterCourses creates one watermark row per course of a class, both
// marks starting at since. It is a single insert: ErrDuplicate when any
// course of the class is already tracked.
func (s *Store) RegisterCourses(ctx context.Context, classID string, courses []Course, since time.Time) error {
	if len(courses) == 0 {
		return fmt.Errorf("register class %s: no courses", classID)
	}

	rows := make([]models.Watermark, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, models.Watermark{
			ClassID:               classID,
			CourseID:              c.ID,
			CourseName:            c.Name,
			LastCheckedAssignment: since.UTC(),
			LastCheckedResource:   since.UTC(),
		})
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("register class %s: %w", classID, translate(err))
	}
	return nil
}

// Watermarks returns the tracked courses of a class keyed by course id.
func (s *Store) Watermarks(ctx context.Context, classID string) (map[string]models.Watermark, error) {
	var rows []models.Watermark
	if err := s.db.WithContext(ctx).Where("class_id = ?", classID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get watermarks for %s: %w", classID, translate(err))
	}

	marks := make(map[string]models.Watermark, len(rows))
	for _, row := range rows {
		marks[row.CourseID] = row
	}
	return marks, nil
}

// AdvanceWatermark sets the mark for kind unconditionally. Keeping it
// monotonic is up to the caller.
func (s *Store) AdvanceWatermark(ctx context.Context, classID, courseID string, kind models.ItemKind, ts time.Time) error {
	var column string
	switch kind {
	case models.ItemAssignment:
		column = "last_checked_assignment"
	case models.ItemResource:
		column = "last_checked_resource"
	default:
		return fmt.Errorf("advance watermark: unknown item kind %q", kind)
	}

	result := s.db.WithContext(ctx).Model(&models.Watermark{}).
		Where("class_id = ? AND course_id = ?", classID, courseID).
		Update(column, ts.UTC().Truncate(time.Millisecond))
	if result.Error != nil {
		return fmt.Errorf("advance %s watermark for %s/%s: %w", kind, classID, courseID, translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("advance %s watermark for %s/%s: %w", kind, classID, courseID, ErrNotFound)
	}
	return nil
}

func (s *Store) HasClass(ctx context.Context, classID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Watermark{}).Where("class_id = ?", classID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check class %s: %w", classID, translate(err))
	}
	return count > 0, nil
}
