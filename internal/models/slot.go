package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrainingSlot is a fixed start date offered for enrollment
type TrainingSlot struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Label     string `gorm:"size:255;not null" json:"label"`
	StartDate Date   `gorm:"not null" json:"startDate"`
	IsActive  bool   `gorm:"not null;index" json:"isActive"`
	// ApplicationCount is only ever incremented by approvals
	ApplicationCount int64     `gorm:"not null;default:0" json:"applicationCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName overrides the table name for TrainingSlot
func (TrainingSlot) TableName() string {
	return "training_slots"
}

// BeforeCreate assigns the opaque id
func (s *TrainingSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
