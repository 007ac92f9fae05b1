package services

import (
	"context"
	"errors"
	"strings"

	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileInput is the part of a user record the user may edit
type ProfileInput struct {
	FullName    string `json:"fullName"`
	Phone       string `json:"phone"`
	Discipline  string `json:"discipline"`
	CollegeName string `json:"collegeName"`
}

// GetProfile returns the user record for uid
func GetProfile(ctx context.Context, db *gorm.DB, uid string) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).Where("id = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SaveProfile creates or updates the user record for uid. The role is taken
// from the verified session and never from the input.
func SaveProfile(ctx context.Context, db *gorm.DB, uid, email string, role models.Role, in ProfileInput) (*models.User, error) {
	user := models.User{
		ID:          uid,
		Email:       email,
		Role:        role,
		FullName:    strings.TrimSpace(in.FullName),
		Phone:       strings.TrimSpace(in.Phone),
		Discipline:  strings.TrimSpace(in.Discipline),
		CollegeName: strings.TrimSpace(in.CollegeName),
	}
	user.ProfileComplete = user.FullName != "" && user.Phone != "" && user.Discipline != "" && user.CollegeName != ""

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "role", "full_name", "phone", "discipline", "college_name", "profile_complete", "updated_at",
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, uid)
}
