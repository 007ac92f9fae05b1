package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/steelsid0609/training-rcf/internal/letters"
	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/datatypes"
)

// IssuePostingLetter appends a posting letter. The first letter issued while the
// application awaits confirmation starts the internship; later letters only append.
func (e *Engine) IssuePostingLetter(ctx context.Context, actor Actor, id string, in PostingLetterInput) (app *models.Application, err error) {
	const op = ActionIssuePostingLetter
	defer e.record(op, &err)

	in.Period = strings.TrimSpace(in.Period)
	in.Plant = strings.TrimSpace(in.Plant)
	in.Mode = PostingMode(strings.ToLower(strings.TrimSpace(string(in.Mode))))
	if err := e.check(op, in); err != nil {
		return nil, err
	}
	if in.Mode == PostingManual && in.File.empty() {
		return nil, validationError(op, map[string]string{"file": "required for manual mode"})
	}

	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	seq := len(app.PostingLetters) + 1

	blob, contentType := []byte(nil), ""
	switch in.Mode {
	case PostingManual:
		blob, contentType = in.File.Data, in.File.contentType()
	default:
		var rerr error
		blob, rerr = e.letters.RenderPosting(app, letters.PostingFields{
			Reference: fmt.Sprintf("%s/%d", e.head.Reference("PST", app, now), seq),
			Sequence:  seq,
			Period:    in.Period,
			Plant:     in.Plant,
			IssuedAt:  now,
			IssuedBy:  actor.Label(),
		})
		if errors.Is(rerr, letters.ErrOverflow) {
			return nil, wrapError(KindValidation, op, rerr, "posting letter does not fit on one page")
		}
		if rerr != nil {
			return nil, wrapError(KindUpload, op, rerr, "failed to render posting letter")
		}
		contentType = "application/pdf"
	}

	url, err := e.upload(ctx, op, blob, "posting", app.ID, contentType)
	if err != nil {
		return nil, err
	}

	list := make(datatypes.JSONSlice[models.PostingLetter], 0, seq)
	list = append(list, app.PostingLetters...)
	list = append(list, models.PostingLetter{
		ID:       uuid.NewString(),
		Period:   in.Period,
		Plant:    in.Plant,
		URL:      url,
		IssuedAt: now,
		IssuedBy: actor.Label(),
	})

	updates := map[string]interface{}{
		"posting_letters": list,
	}
	if app.Status == models.StatusPendingConfirmation {
		updates["status"] = models.StatusInProgress
		updates["internship_started_by"] = actor.Label()
		updates["internship_started_at"] = now
	}

	if err = e.commit(ctx, op, app, updates, nil); err != nil {
		return nil, e.orphaned(op, app.ID, url, err)
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}

// UploadCoverLetter attaches a cover letter to an application that has none.
// A cover letter cannot be replaced once set.
func (e *Engine) UploadCoverLetter(ctx context.Context, actor Actor, id string, in CoverLetterInput) (app *models.Application, err error) {
	const op = ActionUploadCoverLetter
	defer e.record(op, &err)

	if in.File.empty() {
		return nil, validationError(op, map[string]string{"file": "required"})
	}
	app, err = e.prepare(ctx, op, actor, id, in.ExpectedVersion)
	if err != nil {
		return nil, err
	}
	if app.CoverLetterURL != "" {
		return nil, &Error{
			Kind:    KindInvalidTransition,
			Op:      op,
			Message: "cover letter already uploaded",
			Fields:  map[string]string{"coverLetterURL": "immutable"},
		}
	}

	url, err := e.upload(ctx, op, in.File.Data, "cover", app.ID, in.File.contentType())
	if err != nil {
		return nil, err
	}

	// the version compare also guards against a concurrent upload
	if err = e.commit(ctx, op, app, map[string]interface{}{"cover_letter_url": url}, nil); err != nil {
		return nil, e.orphaned(op, app.ID, url, err)
	}
	return e.committed(ctx, op, actor, app.Status, app.ID)
}
