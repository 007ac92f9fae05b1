package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

// Submit creates a pending application for the calling student.
// A student may hold only one application in an active status; the check runs
// inside the insert transaction with the student's user row locked.
func (e *Engine) Submit(ctx context.Context, actor Actor, in SubmitInput) (app *models.Application, err error) {
	const op = ActionSubmit
	defer e.record(op, &err)

	if err := authorize(op, actor); err != nil {
		return nil, err
	}
	in.normalize()
	if err := e.check(op, in); err != nil {
		return nil, err
	}
	unit, perr := dates.ParseDurationType(in.DurationType)
	if perr != nil {
		return nil, validationError(op, map[string]string{"durationType": "oneof days weeks months"})
	}
	other := in.CollegeName == OtherCollege
	if other && in.OtherCollege.Name == "" {
		return nil, validationError(op, map[string]string{"otherCollege.name": "required"})
	}

	db := e.db.WithContext(ctx)

	// Checked again under lock, this pass avoids uploading for a doomed submission
	if err := ensureNoActive(db, op, actor.UID); err != nil {
		return nil, err
	}
	slot, err := activeSlot(db, op, in.SlotID)
	if err != nil {
		return nil, err
	}
	if !other {
		var n int64
		if err := db.Model(&models.College{}).Where("name = ?", in.CollegeName).Count(&n).Error; err != nil {
			return nil, wrapError(KindStore, op, err, "failed to look up college")
		}
		if n == 0 {
			return nil, validationError(op, map[string]string{"collegeName": "unknown college"})
		}
	}

	start := slot.StartDate.Time()
	end, derr := dates.DeriveEndDate(start, in.DurationValue, unit)
	if derr != nil {
		return nil, wrapError(KindValidation, op, derr, "invalid duration")
	}

	email := in.Email
	if email == "" {
		email = actor.Email
	}

	app = &models.Application{
		ID:                   uuid.NewString(),
		StudentID:            actor.UID,
		StudentName:          in.FullName,
		Email:                email,
		Phone:                in.Phone,
		Discipline:           in.Discipline,
		InternshipType:       in.InternshipType,
		SlotID:               slot.ID,
		DurationValue:        in.DurationValue,
		DurationType:         string(unit),
		PreferredStartDate:   models.NewDate(start),
		PreferredEndDate:     models.NewDate(end),
		ReceivedConfirmation: in.ReceivedConfirmation,
		ConfirmationNumber:   in.ConfirmationNumber,
		PostingLetters:       datatypes.JSONSlice[models.PostingLetter]{},
		PaymentStatus:        models.PaymentPending,
		Status:               models.StatusPending,
	}
	if !other {
		app.CollegeName = in.CollegeName
	}

	if !in.CoverLetter.empty() {
		url, err := e.upload(ctx, op, in.CoverLetter.Data, "cover", app.ID, in.CoverLetter.contentType())
		if err != nil {
			return nil, err
		}
		app.CoverLetterURL = url
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := upsertStudent(tx, actor, in, email); err != nil {
			return err
		}
		if err := ensureNoActive(tx, op, actor.UID); err != nil {
			return err
		}
		if _, err := activeSlot(tx, op, in.SlotID); err != nil {
			return err
		}

		if other {
			temp := models.TempCollege{
				CollegeDetails: *in.OtherCollege,
				Status:         models.TempCollegePending,
				SubmittedBy:    actor.UID,
				ApplicationID:  &app.ID,
			}
			if err := tx.Create(&temp).Error; err != nil {
				return err
			}
			app.PendingCollegeID = &temp.ID
			app.PendingCollegeName = temp.Name
		}

		return tx.Create(app).Error
	})
	if err != nil {
		var le *Error
		if !errors.As(err, &le) {
			err = wrapError(KindStore, op, err, "failed to create application")
		}
		if app.CoverLetterURL != "" {
			return nil, e.orphaned(op, app.ID, app.CoverLetterURL, err)
		}
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"op":             op,
		"application_id": app.ID,
		"actor":          actor.Label(),
		"slot_id":        slot.ID,
	}).Info("application submitted")

	return e.committed(ctx, op, actor, "", app.ID)
}

// upsertStudent records the profile captured by the form and locks the user row
func upsertStudent(tx *gorm.DB, actor Actor, in SubmitInput, email string) error {
	college := in.CollegeName
	if college == OtherCollege {
		college = in.OtherCollege.Name
	}
	user := models.User{
		ID:              actor.UID,
		Email:           email,
		Role:            models.RoleStudent,
		FullName:        in.FullName,
		Phone:           in.Phone,
		Discipline:      in.Discipline,
		CollegeName:     college,
		ProfileComplete: true,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "full_name", "phone", "discipline", "college_name", "profile_complete", "updated_at",
		}),
	}).Create(&user).Error; err != nil {
		return err
	}

	var locked models.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", actor.UID).
		First(&locked).Error
}

// activeQuery selects a student's non-terminal applications
func activeQuery(db *gorm.DB, studentID string) *gorm.DB {
	if db.Dialector.Name() == "mysql" {
		db = db.Clauses(hints.UseIndex(models.StudentStatusIndex))
	}
	return db.Select("id", "status").
		Where("student_id = ? AND status IN ?", studentID, models.ActiveStatuses).
		Limit(1)
}

func ensureNoActive(db *gorm.DB, op Action, studentID string) error {
	var active models.Application
	err := activeQuery(db, studentID).Find(&active).Error
	if err != nil {
		return wrapError(KindStore, op, err, "failed to check active applications")
	}
	if active.ID != "" {
		return &Error{
			Kind:    KindActiveApplication,
			Op:      op,
			Message: "student already has an active application",
			Fields:  map[string]string{"applicationId": active.ID, "status": string(active.Status)},
		}
	}
	return nil
}

func activeSlot(db *gorm.DB, op Action, id string) (*models.TrainingSlot, error) {
	var slot models.TrainingSlot
	err := db.Where("id = ?", id).Limit(1).Find(&slot).Error
	if err != nil {
		return nil, wrapError(KindStore, op, err, "failed to read slot")
	}
	if slot.ID == "" {
		return nil, validationError(op, map[string]string{"slotId": "unknown slot"})
	}
	if !slot.IsActive {
		return nil, validationError(op, map[string]string{"slotId": "slot is not open"})
	}
	return &slot, nil
}
