package lifecycle

import (
	"context"
	"strings"

	"github.com/steelsid0609/training-rcf/internal/models"
)

func requireReason(op Action, reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", validationError(op, map[string]string{"reason": "required"})
	}
	return reason, nil
}

// Reject closes a pending application with a reason
func (e *Engine) Reject(ctx context.Context, actor Actor, id string, in ReasonInput) (app *models.Application, err error) {
	const op = ActionReject
	defer e.record(op, &err)

	reason, err := requireReason(op, in.Reason)
	if err != nil {
		return nil, err
	}
	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"status":           models.StatusRejected,
		"rejected_by":      actor.Label(),
		"rejected_at":      e.clock(),
		"rejection_reason": reason,
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// MarkCompleted closes an internship as completed
func (e *Engine) MarkCompleted(ctx context.Context, actor Actor, id string, expected *uint64) (app *models.Application, err error) {
	const op = ActionMarkCompleted
	defer e.record(op, &err)

	app, err = e.prepare(ctx, op, actor, id, expected)
	if err != nil {
		return nil, err
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_by": actor.Label(),
		"completed_at": e.clock(),
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// Terminate ends an internship early. The reason is optional.
func (e *Engine) Terminate(ctx context.Context, actor Actor, id string, in ReasonInput) (app *models.Application, err error) {
	const op = ActionTerminate
	defer e.record(op, &err)

	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"status":             models.StatusTerminated,
		"terminated_by":      actor.Label(),
		"terminated_at":      e.clock(),
		"termination_reason": strings.TrimSpace(in.Reason),
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// RejectConfirmation returns an application awaiting final confirmation to approved
func (e *Engine) RejectConfirmation(ctx context.Context, actor Actor, id string, in ReasonInput) (app *models.Application, err error) {
	const op = ActionRejectConfirmation
	defer e.record(op, &err)

	reason, err := requireReason(op, in.Reason)
	if err != nil {
		return nil, err
	}
	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"status":                     models.StatusApproved,
		"final_confirmation_number":  "",
		"confirmation_reject_reason": reason,
		"confirmation_rejected_by":   actor.Label(),
		"confirmation_rejected_at":   e.clock(),
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// SubmitConfirmation records the student's final confirmation number. From approved
// it is only accepted once payment is verified, which is the path back after a
// rejected confirmation.
func (e *Engine) SubmitConfirmation(ctx context.Context, actor Actor, id string, in ConfirmationInput) (app *models.Application, err error) {
	const op = ActionSubmitConfirmation
	defer e.record(op, &err)

	in.FinalConfirmationNumber = strings.TrimSpace(in.FinalConfirmationNumber)
	if err := e.check(op, in); err != nil {
		return nil, err
	}
	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if app.Status == models.StatusApproved && app.PaymentStatus != models.PaymentVerified {
		return nil, &Error{
			Kind:    KindInvalidTransition,
			Op:      op,
			Message: "payment must be verified before confirmation",
			Fields:  map[string]string{"paymentStatus": string(app.PaymentStatus)},
		}
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"status":                     models.StatusPendingConfirmation,
		"final_confirmation_number":  in.FinalConfirmationNumber,
		"confirmation_reject_reason": "",
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}
