package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TempCollegeStatus tracks a submitted college awaiting promotion
type TempCollegeStatus string

const (
	TempCollegePending  TempCollegeStatus = "pending"
	TempCollegeResolved TempCollegeStatus = "resolved"
)

// Faculty is a department contact at a college
type Faculty struct {
	Name     string   `json:"name" yaml:"name"`
	Emails   []string `json:"emails" yaml:"emails"`
	Contacts []string `json:"contacts" yaml:"contacts"`
}

// CollegeDetails are the fields shared by master and temp records
type CollegeDetails struct {
	Name             string                       `gorm:"size:255;not null" json:"name" yaml:"name"`
	Address          string                       `gorm:"type:text" json:"address" yaml:"address"`
	City             string                       `gorm:"size:255" json:"city" yaml:"city"`
	PrincipalName    string                       `gorm:"size:255" json:"principalName" yaml:"principalName"`
	PrincipalEmail   string                       `gorm:"size:255" json:"principalEmail" yaml:"principalEmail"`
	PrincipalContact string                       `gorm:"size:64" json:"principalContact" yaml:"principalContact"`
	Faculties        datatypes.JSONSlice[Faculty] `json:"faculties" yaml:"faculties"`
}

// College is a verified institution record
type College struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	CollegeDetails
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for College
func (College) TableName() string {
	return "colleges_master"
}

// BeforeCreate assigns the opaque id
func (c *College) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// TempCollege is a candidate college submitted by a student or admin
type TempCollege struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	CollegeDetails
	Status        TempCollegeStatus `gorm:"size:16;not null;index" json:"status"`
	SubmittedBy   string            `gorm:"size:128" json:"submittedBy"`
	ApplicationID *string           `gorm:"size:36" json:"applicationId,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// TableName overrides the table name for TempCollege
func (TempCollege) TableName() string {
	return "colleges_temp"
}

// BeforeCreate assigns the opaque id
func (c *TempCollege) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
