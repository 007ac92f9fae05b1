package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/metrics"
	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SlotInput is the editable part of a training slot.
// applicationCount is never accepted from callers.
type SlotInput struct {
	Label     string      `json:"label" yaml:"label"`
	StartDate models.Date `json:"startDate" yaml:"startDate"`
	IsActive  *bool       `json:"isActive" yaml:"isActive"`
}

func (in *SlotInput) validate() error {
	in.Label = strings.TrimSpace(in.Label)
	if in.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalid)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: startDate is required", ErrInvalid)
	}
	return nil
}

// ListSlots returns slots ordered by start date
func ListSlots(ctx context.Context, db *gorm.DB, activeOnly bool) ([]models.TrainingSlot, error) {
	q := db.WithContext(ctx).Order("start_date").Order("label")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var slots []models.TrainingSlot
	if err := q.Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// GetSlot returns one slot
func GetSlot(ctx context.Context, db *gorm.DB, id string) (*models.TrainingSlot, error) {
	var slot models.TrainingSlot
	err := db.WithContext(ctx).
		Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).
		Where("id = ?", id).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// CreateSlot adds a slot with a zero application count. Slots are active unless stated otherwise.
func CreateSlot(ctx context.Context, db *gorm.DB, in SlotInput) (*models.TrainingSlot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	slot := &models.TrainingSlot{
		Label:     in.Label,
		StartDate: in.StartDate,
		IsActive:  in.IsActive == nil || *in.IsActive,
	}
	if err := db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

// UpdateSlot edits label, start date and open state
func UpdateSlot(ctx context.Context, db *gorm.DB, id string, in SlotInput) (*models.TrainingSlot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"label":      in.Label,
		"start_date": in.StartDate,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	result := db.WithContext(ctx).Model(&models.TrainingSlot{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetSlot(ctx, db, id)
}

// DeleteSlot removes a slot no application refers to
func DeleteSlot(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.TrainingSlot
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&slot).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var refs int64
		if err := tx.Model(&models.Application{}).Where("slot_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 || slot.ApplicationCount > 0 {
			return fmt.Errorf("%w: slot %s is referenced by %d applications", ErrInUse, id, refs)
		}

		return tx.Delete(&slot).Error
	})
}

// SlotDrift is a slot whose recorded count is below the number of approvals on it
type SlotDrift struct {
	SlotID   string `json:"slotId"`
	Label    string `json:"label"`
	Recorded int64  `json:"recorded"`
	Counted  int64  `json:"counted"`
}

// ReconcileSlotCounts compares each slot's applicationCount with the approved applications
// that finalized on it. With apply set, drifted counters are raised to the counted value.
// A counter is never lowered.
func ReconcileSlotCounts(ctx context.Context, db *gorm.DB, apply bool, log *logrus.Entry) ([]SlotDrift, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var rows []struct {
		SlotID string
		N      int64
	}
	err := db.WithContext(ctx).Model(&models.Application{}).
		Select("slot_id, COUNT(*) AS n").
		Where("approved_at IS NOT NULL").
		Group("slot_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count approvals: %w", err)
	}
	counted := make(map[string]int64, len(rows))
	for _, r := range rows {
		counted[r.SlotID] = r.N
	}

	var slots []models.TrainingSlot
	if err := db.WithContext(ctx).Order("start_date").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}

	var drift []SlotDrift
	for _, s := range slots {
		if n := counted[s.ID]; n > s.ApplicationCount {
			drift = append(drift, SlotDrift{SlotID: s.ID, Label: s.Label, Recorded: s.ApplicationCount, Counted: n})
		}
	}
	metrics.RecordSlotDrift(len(drift))

	for _, d := range drift {
		entry := log.WithFields(logrus.Fields{
			"slot_id":  d.SlotID,
			"recorded": d.Recorded,
			"counted":  d.Counted,
		})
		if !apply {
			entry.Warn("slot application count drift")
			continue
		}
		// the guard keeps a concurrent approval's increment from being overwritten downward
		err := db.WithContext(ctx).Model(&models.TrainingSlot{}).
			Where("id = ? AND application_count < ?", d.SlotID, d.Counted).
			UpdateColumn("application_count", d.Counted).Error
		if err != nil {
			return drift, fmt.Errorf("failed to raise count for slot %s: %w", d.SlotID, err)
		}
		entry.Info("slot application count raised")
	}
	return drift, nil
}
