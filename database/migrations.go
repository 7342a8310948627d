package database

import (
	"fmt"

	"NucleusBot/logger"
	"NucleusBot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var permissionNames = []models.PermissionName{
	{Level: 0, Name: "Member"},
	{Level: 1, Name: "Student"},
	{Level: 2, Name: "Helper"},
	{Level: 3, Name: "Trusted"},
	{Level: 4, Name: "Class Rep"},
	{Level: 5, Name: "Senior"},
	{Level: 6, Name: "Moderator"},
	{Level: 7, Name: "Senior Moderator"},
	{Level: 8, Name: "Admin"},
	{Level: 9, Name: "Senior Admin"},
	{Level: 10, Name: "Owner"},
}

func RunMigrations(db *gorm.DB) error {
	logger.Log.Info("Running migrations")

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate database models: %w", err)
	}

	names := append([]models.PermissionName(nil), permissionNames...)
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&names)
	if result.Error != nil {
		return fmt.Errorf("failed to seed permission names: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logger.Log.Infof("Seeded %d permission names", result.RowsAffected)
	}

	return nil
}
