package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/letters"
	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/gorm"
)

// Approve finalizes the schedule of a pending application, issues its approval
// letter and counts it against the chosen slot.
//
// The letter is rendered and uploaded before anything is written. The status
// change and the slot increment then commit together, so a failed render or
// upload leaves both the application and the slot untouched.
func (e *Engine) Approve(ctx context.Context, actor Actor, id string, in ApproveInput) (app *models.Application, err error) {
	const op = ActionApprove
	defer e.record(op, &err)

	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	slotID := strings.TrimSpace(in.SlotID)
	if slotID == "" {
		slotID = app.SlotID
	}
	var slot models.TrainingSlot
	if err := e.db.WithContext(ctx).Where("id = ?", slotID).Limit(1).Find(&slot).Error; err != nil {
		return nil, wrapError(KindStore, op, err, "failed to read slot")
	}
	if slot.ID == "" {
		return nil, validationError(op, map[string]string{"slotId": "unknown slot"})
	}

	if in.ActualStartDate.IsZero() {
		return nil, validationError(op, map[string]string{"actualStartDate": "required"})
	}
	start := dates.Truncate(in.ActualStartDate)
	var end time.Time
	if in.ActualEndDate != nil && !in.ActualEndDate.IsZero() {
		end = dates.Truncate(*in.ActualEndDate)
	} else {
		end, err = DeriveEnd(app, start)
		if err != nil {
			return nil, wrapError(KindValidation, op, err, "cannot derive end date")
		}
	}
	if end.Before(start) {
		return nil, validationError(op, map[string]string{"actualEndDate": "before actualStartDate"})
	}

	now := e.clock()
	pdf, rerr := e.letters.RenderApproval(app, letters.ApprovalFields{
		Reference: e.head.Reference("APL", app, now),
		SlotLabel: slot.Label,
		StartDate: start,
		EndDate:   end,
		IssuedAt:  now,
		IssuedBy:  actor.Label(),
	})
	if rerr != nil {
		return nil, wrapError(KindUpload, op, rerr, "failed to render approval letter")
	}
	url, err := e.upload(ctx, op, pdf, "approval", app.ID, "application/pdf")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":              models.StatusApproved,
		"approved_by":         actor.Label(),
		"approved_at":         now,
		"actual_start_date":   models.NewDate(start),
		"actual_end_date":     models.NewDate(end),
		"slot_id":             slot.ID,
		"approval_letter_url": url,
	}
	err = e.commit(ctx, op, app, updates, func(tx *gorm.DB) error {
		result := tx.Model(&models.TrainingSlot{}).
			Where("id = ?", slot.ID).
			UpdateColumn("application_count", gorm.Expr("application_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(KindNotFound, op, "slot %s not found", slot.ID)
		}
		return nil
	})
	if err != nil {
		return nil, e.orphaned(op, app.ID, url, err)
	}

	return e.committed(ctx, op, actor, models.StatusPending, app.ID)
}

// DeriveEnd applies the application's duration to start
func DeriveEnd(app *models.Application, start time.Time) (time.Time, error) {
	unit, err := dates.ParseDurationType(app.DurationType)
	if err != nil {
		return time.Time{}, err
	}
	return dates.DeriveEndDate(start, app.DurationValue, unit)
}
