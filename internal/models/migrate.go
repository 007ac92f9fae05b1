package models

import (
	"fmt"

	"gorm.io/gorm"
)

// All lists every table the service owns, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&TrainingSlot{},
		&College{},
		&TempCollege{},
		&Application{},
	}
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	// master names are the join key denormalized onto applications
	if !db.Migrator().HasIndex(&College{}, "idx_colleges_master_name") {
		if err := db.Exec("CREATE UNIQUE INDEX idx_colleges_master_name ON colleges_master (name)").Error; err != nil {
			return fmt.Errorf("failed to create college name index: %w", err)
		}
	}
	return nil
}
