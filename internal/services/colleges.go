package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListColleges returns the master directory ordered by name
func ListColleges(ctx context.Context, db *gorm.DB) ([]models.College, error) {
	var out []models.College
	if err := db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetCollege returns one master college
func GetCollege(ctx context.Context, db *gorm.DB, id string) (*models.College, error) {
	var c models.College
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCollege adds a master college. Names are unique.
func CreateCollege(ctx context.Context, db *gorm.DB, details models.CollegeDetails) (*models.College, error) {
	details.Name = strings.TrimSpace(details.Name)
	if details.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	c := &models.College{CollegeDetails: details}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueName(tx, details.Name); err != nil {
			return err
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListTempColleges returns submitted colleges, optionally filtered by status
func ListTempColleges(ctx context.Context, db *gorm.DB, status models.TempCollegeStatus) ([]models.TempCollege, error) {
	q := db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.TempCollege
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTempCollege records a college for later review
func CreateTempCollege(ctx context.Context, db *gorm.DB, details models.CollegeDetails, submittedBy string) (*models.TempCollege, error) {
	details.Name = strings.TrimSpace(details.Name)
	if details.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	temp := &models.TempCollege{
		CollegeDetails: details,
		Status:         models.TempCollegePending,
		SubmittedBy:    submittedBy,
	}
	if err := db.WithContext(ctx).Create(temp).Error; err != nil {
		return nil, err
	}
	return temp, nil
}

// FieldDiff is one detail that differs between a temp college and a master record
type FieldDiff struct {
	Field  string `json:"field"`
	Master string `json:"master"`
	Temp   string `json:"temp"`
}

// MergeResult describes a merge of a temp college into a master record
type MergeResult struct {
	College        *models.College `json:"college"`
	Diff           []FieldDiff     `json:"diff"`
	Relinked       int64           `json:"relinked"`
	AddedFaculties []string        `json:"addedFaculties,omitempty"`
}

// DiffColleges lists the scalar fields that differ between master and temp
func DiffColleges(master, temp models.CollegeDetails) []FieldDiff {
	pairs := []struct {
		field string
		m, t  string
	}{
		{"name", master.Name, temp.Name},
		{"address", master.Address, temp.Address},
		{"city", master.City, temp.City},
		{"principalName", master.PrincipalName, temp.PrincipalName},
		{"principalEmail", master.PrincipalEmail, temp.PrincipalEmail},
		{"principalContact", master.PrincipalContact, temp.PrincipalContact},
	}
	var out []FieldDiff
	for _, p := range pairs {
		if strings.TrimSpace(p.m) != strings.TrimSpace(p.t) {
			out = append(out, FieldDiff{Field: p.field, Master: p.m, Temp: p.t})
		}
	}
	return out
}

// PromoteTempCollege turns a pending temp college into a master record and points
// every application waiting on it at the new name.
func PromoteTempCollege(ctx context.Context, db *gorm.DB, tempID string) (*models.College, int64, error) {
	var (
		master   *models.College
		relinked int64
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		temp, err := lockPendingTemp(tx, tempID)
		if err != nil {
			return err
		}
		if err := ensureUniqueName(tx, temp.Name); err != nil {
			return err
		}

		master = &models.College{CollegeDetails: temp.CollegeDetails}
		if err := tx.Create(master).Error; err != nil {
			return err
		}
		if err := resolveTemp(tx, temp.ID); err != nil {
			return err
		}
		relinked, err = relinkApplications(tx, temp.ID, master.Name)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return master, relinked, nil
}

// MergeTempCollege folds a pending temp college into an existing master record.
// Empty master fields are filled from the temp record and unknown faculties appended;
// fields both records set keep the master value and are reported in the diff.
func MergeTempCollege(ctx context.Context, db *gorm.DB, tempID, masterID string) (*MergeResult, error) {
	result := &MergeResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		temp, err := lockPendingTemp(tx, tempID)
		if err != nil {
			return err
		}

		var master models.College
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", masterID).First(&master).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: master college %s", ErrNotFound, masterID)
			}
			return err
		}

		result.Diff = DiffColleges(master.CollegeDetails, temp.CollegeDetails)
		merged, added := fillDetails(master.CollegeDetails, temp.CollegeDetails)
		result.AddedFaculties = added
		master.CollegeDetails = merged
		if err := tx.Save(&master).Error; err != nil {
			return err
		}
		result.College = &master

		if err := resolveTemp(tx, temp.ID); err != nil {
			return err
		}
		result.Relinked, err = relinkApplications(tx, temp.ID, master.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func fillDetails(master, temp models.CollegeDetails) (models.CollegeDetails, []string) {
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = strings.TrimSpace(src)
		}
	}
	fill(&master.Address, temp.Address)
	fill(&master.City, temp.City)
	fill(&master.PrincipalName, temp.PrincipalName)
	fill(&master.PrincipalEmail, temp.PrincipalEmail)
	fill(&master.PrincipalContact, temp.PrincipalContact)

	known := make(map[string]struct{}, len(master.Faculties))
	for _, f := range master.Faculties {
		known[strings.ToLower(strings.TrimSpace(f.Name))] = struct{}{}
	}
	var added []string
	for _, f := range temp.Faculties {
		key := strings.ToLower(strings.TrimSpace(f.Name))
		if key == "" {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		master.Faculties = append(master.Faculties, f)
		added = append(added, f.Name)
	}
	return master, added
}

func lockPendingTemp(tx *gorm.DB, id string) (*models.TempCollege, error) {
	var temp models.TempCollege
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&temp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: temp college %s", ErrNotFound, id)
		}
		return nil, err
	}
	if temp.Status != models.TempCollegePending {
		return nil, fmt.Errorf("%w: temp college %s", ErrResolved, id)
	}
	return &temp, nil
}

func ensureUniqueName(tx *gorm.DB, name string) error {
	var n int64
	if err := tx.Model(&models.College{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: college %q", ErrDuplicate, name)
	}
	return nil
}

func resolveTemp(tx *gorm.DB, id string) error {
	return tx.Model(&models.TempCollege{}).Where("id = ?", id).
		Update("status", models.TempCollegeResolved).Error
}

// relinkApplications swaps the pending reference for the master name. The version
// bump invalidates any lifecycle operation prepared against the old record.
func relinkApplications(tx *gorm.DB, tempID, name string) (int64, error) {
	result := tx.Model(&models.Application{}).
		Where("pending_college_id = ?", tempID).
		Updates(map[string]interface{}{
			"college_name":         name,
			"pending_college_id":   nil,
			"pending_college_name": "",
			"version":              gorm.Expr("version + ?", 1),
		})
	return result.RowsAffected, result.Error
}
