package lifecycle

import (
	"context"
	"strings"

	"github.com/steelsid0609/training-rcf/internal/models"
)

func requirePayment(op Action, app *models.Application, allowed ...models.PaymentStatus) error {
	for _, s := range allowed {
		if app.PaymentStatus == s {
			return nil
		}
	}
	return &Error{
		Kind:    KindInvalidTransition,
		Op:      op,
		Message: "cannot " + string(op) + " with payment status " + string(app.PaymentStatus),
		Fields:  map[string]string{"paymentStatus": string(app.PaymentStatus)},
	}
}

// SubmitPayment records the student's fee receipt for review. Status stays approved.
func (e *Engine) SubmitPayment(ctx context.Context, actor Actor, id string, in PaymentInput) (app *models.Application, err error) {
	const op = ActionSubmitPayment
	defer e.record(op, &err)

	in.ReceiptNumber = strings.TrimSpace(in.ReceiptNumber)
	if err := e.check(op, in); err != nil {
		return nil, err
	}
	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if err := requirePayment(op, app, models.PaymentPending, models.PaymentRejected); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"payment_status":         models.PaymentVerificationPending,
		"payment_receipt_number": in.ReceiptNumber,
		"payment_submitted_at":   e.clock(),
		"payment_reject_reason":  "",
	}

	var url string
	if !in.Receipt.empty() {
		url, err = e.upload(ctx, op, in.Receipt.Data, "receipt", app.ID, in.Receipt.contentType())
		if err != nil {
			return nil, err
		}
		updates["payment_receipt_url"] = url
	}

	if err = e.commit(ctx, op, app, updates, nil); err != nil {
		if url != "" {
			return nil, e.orphaned(op, app.ID, url, err)
		}
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// VerifyPayment accepts the receipt and moves the application to pending_confirmation
func (e *Engine) VerifyPayment(ctx context.Context, actor Actor, id string, expected *uint64) (app *models.Application, err error) {
	const op = ActionVerifyPayment
	defer e.record(op, &err)

	app, err = e.prepare(ctx, op, actor, id, expected)
	if err != nil {
		return nil, err
	}
	if err := requirePayment(op, app, models.PaymentVerificationPending); err != nil {
		return nil, err
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"payment_status":      models.PaymentVerified,
		"status":              models.StatusPendingConfirmation,
		"payment_verified_by": actor.Label(),
		"payment_verified_at": e.clock(),
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// RejectPayment sends the student back to resubmit a receipt. Status stays approved.
func (e *Engine) RejectPayment(ctx context.Context, actor Actor, id string, in ReasonInput) (app *models.Application, err error) {
	const op = ActionRejectPayment
	defer e.record(op, &err)

	reason, err := requireReason(op, in.Reason)
	if err != nil {
		return nil, err
	}
	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if err := requirePayment(op, app, models.PaymentVerificationPending); err != nil {
		return nil, err
	}

	err = e.commit(ctx, op, app, map[string]interface{}{
		"payment_status":        models.PaymentRejected,
		"payment_reject_reason": reason,
		"payment_rejected_by":   actor.Label(),
		"payment_rejected_at":   e.clock(),
	}, nil)
	if err != nil {
		return nil, err
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}
