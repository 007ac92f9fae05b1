package models

import (
	"time"
)

// Role gates which lifecycle operations an account may invoke
type Role string

const (
	RoleStudent    Role = "student"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// Roles in precedence order, highest first
var Roles = []Role{RoleAdmin, RoleSupervisor, RoleStudent}

// User is a role-tagged account keyed by the auth provider's uid
type User struct {
	ID              string    `gorm:"primaryKey;size:128" json:"id"`
	Email           string    `gorm:"size:255;index" json:"email"`
	Role            Role      `gorm:"size:16;not null;default:student" json:"role"`
	FullName        string    `gorm:"size:255" json:"fullName"`
	Phone           string    `gorm:"size:32" json:"phone"`
	Discipline      string    `gorm:"size:255" json:"discipline"`
	CollegeName     string    `gorm:"size:255" json:"collegeName"`
	ProfileComplete bool      `gorm:"not null;default:false" json:"profileComplete"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}
