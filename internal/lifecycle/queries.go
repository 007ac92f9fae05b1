package lifecycle

import (
	"context"

	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/hints"
)

// ListFilter narrows an application listing. Students only ever see their own.
type ListFilter struct {
	Status        []models.Status
	PaymentStatus models.PaymentStatus
	StudentID     string
	SlotID        string
	Limit         int
	Offset        int
}

const maxListLimit = 200

// Get returns one application. Students may only read their own.
func (e *Engine) Get(ctx context.Context, actor Actor, id string) (*models.Application, error) {
	const op Action = "get"
	if actor.UID == "" {
		return nil, newError(KindForbidden, op, "missing actor identity")
	}
	app, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && app.StudentID != actor.UID {
		// indistinguishable from a missing application
		return nil, newError(KindNotFound, op, "application %s not found", id)
	}
	return app, nil
}

// List returns applications matching f, newest first
func (e *Engine) List(ctx context.Context, actor Actor, f ListFilter) ([]models.Application, error) {
	const op Action = "list"
	if actor.UID == "" {
		return nil, newError(KindForbidden, op, "missing actor identity")
	}
	if actor.Role == models.RoleStudent {
		f.StudentID = actor.UID
	}

	q := e.db.WithContext(ctx).
		Clauses(hints.Comment("select", "lifecycle:list")).
		Model(&models.Application{})
	if len(f.Status) > 0 {
		q = q.Where("status IN ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.StudentID != "" {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.SlotID != "" {
		q = q.Where("slot_id = ?", f.SlotID)
	}

	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q = q.Order("created_at DESC").Order("id").Limit(limit)
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var apps []models.Application
	if err := q.Find(&apps).Error; err != nil {
		return nil, wrapError(KindStore, op, err, "failed to list applications")
	}
	return apps, nil
}
