// engine.go
//
// Internship application lifecycle service
// Copyright (c) 2026 The training-rcf Authors
//
// This file is part of training-rcf.
// training-rcf is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// training-rcf is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with training-rcf.
// If not, see <https://www.gnu.org/licenses/>.

// Package lifecycle owns every status change of an internship application.
//
// Each operation checks the actor against the transition table, reads the
// application, verifies its precondition, performs any render and upload
// work, and then commits inside one transaction that locks the row and
// compares status and version before writing. A lost comparison is reported
// as a conflict and nothing is written.
package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/feed"
	"github.com/steelsid0609/training-rcf/internal/filestore"
	"github.com/steelsid0609/training-rcf/internal/letters"
	"github.com/steelsid0609/training-rcf/internal/metrics"
	"github.com/steelsid0609/training-rcf/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// Actor is the verified caller of an operation
type Actor struct {
	UID   string
	Email string
	Role  models.Role
}

// Label is the value written into audit stamps
func (a Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	return a.UID
}

// IsStaff reports whether the actor reviews applications
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleSupervisor || a.Role == models.RoleAdmin
}

// FileStore persists a blob and returns its durable URL
type FileStore interface {
	Upload(ctx context.Context, blob []byte, publicID, contentType string) (string, error)
}

// LetterRenderer produces approval and posting letter documents
type LetterRenderer interface {
	RenderApproval(app *models.Application, f letters.ApprovalFields) ([]byte, error)
	RenderPosting(app *models.Application, f letters.PostingFields) ([]byte, error)
}

// Publisher receives an event after every committed change
type Publisher interface {
	Publish(ev feed.Event)
}

// Engine runs lifecycle operations against the document store
type Engine struct {
	db       *gorm.DB
	files    FileStore
	letters  LetterRenderer
	head     letters.Letterhead
	feed     Publisher
	log      *logrus.Entry
	now      func() time.Time
	validate *validator.Validate
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's log entry
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPublisher sends committed changes to p
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.feed = p }
}

// WithLetterhead sets the organization used for letter reference numbers
func WithLetterhead(head letters.Letterhead) Option {
	return func(e *Engine) { e.head = head }
}

// New creates an engine
func New(db *gorm.DB, files FileStore, renderer LetterRenderer, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		files:    files,
		letters:  renderer,
		now:      time.Now,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logrus.NewEntry(logrus.StandardLogger())
	}
	e.log = e.log.WithField("component", "lifecycle")
	return e
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

func (e *Engine) check(op Action, in interface{}) error {
	err := e.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return validationError(op, fields)
	}
	return wrapError(KindValidation, op, err, "invalid input")
}

func (e *Engine) record(op Action, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = string(KindOf(*errp))
	}
	metrics.RecordOperation(string(op), outcome)
}

// load reads an application without locking it
func (e *Engine) load(ctx context.Context, op Action, id string) (*models.Application, error) {
	var app models.Application
	err := e.db.WithContext(ctx).
		Session(&gorm.Session{Logger: e.db.Logger.LogMode(logger.Silent)}).
		Clauses(hints.Comment("select", "lifecycle:"+string(op))).
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, op, "application %s not found", id)
		}
		return nil, wrapError(KindStore, op, err, "failed to read application %s", id)
	}
	return &app, nil
}

func checkVersion(op Action, app *models.Application, expected *uint64) error {
	if expected != nil && *expected != app.Version {
		return &Error{
			Kind:    KindConflict,
			Op:      op,
			Message: "stale application version, refresh and retry",
			Fields:  map[string]string{"version": "expected current version"},
		}
	}
	return nil
}

// prepare runs the checks shared by every operation on an existing application
func (e *Engine) prepare(ctx context.Context, op Action, actor Actor, id string, expected *uint64) (*models.Application, error) {
	if err := authorize(op, actor); err != nil {
		return nil, err
	}
	app, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(op, actor, app); err != nil {
		return nil, err
	}
	if err := checkVersion(op, app, expected); err != nil {
		return nil, err
	}
	if err := checkFrom(op, app); err != nil {
		return nil, err
	}
	return app, nil
}

// commit applies updates to app inside one transaction guarded by a row lock and a
// status/version compare-and-swap. extra runs in the same transaction after the update.
func (e *Engine) commit(ctx context.Context, op Action, app *models.Application, updates map[string]interface{}, extra func(tx *gorm.DB) error) error {
	updates["version"] = gorm.Expr("version + ?", 1)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Application
		if err := tx.Session(&gorm.Session{Logger: tx.Logger.LogMode(logger.Silent)}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status", "version").
			Where("id = ?", app.ID).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, op, "application %s not found", app.ID)
			}
			return err
		}
		if current.Status != app.Status || current.Version != app.Version {
			return newError(KindConflict, op, "application %s changed from %s/v%d to %s/v%d",
				app.ID, app.Status, app.Version, current.Status, current.Version)
		}

		result := tx.Model(&models.Application{}).
			Where("id = ? AND status = ? AND version = ?", app.ID, app.Status, app.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newError(KindConflict, op, "application %s was modified concurrently", app.ID)
		}

		if extra != nil {
			return extra(tx)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return wrapError(KindStore, op, err, "failed to update application %s", app.ID)
}

// committed reloads the application after a successful commit, then logs and publishes it
func (e *Engine) committed(ctx context.Context, op Action, actor Actor, from models.Status, id string) (*models.Application, error) {
	app, err := e.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"op":             op,
		"application_id": app.ID,
		"actor":          actor.Label(),
		"from":           from,
		"to":             app.Status,
		"version":        app.Version,
	}).Info("application updated")

	if e.feed != nil {
		e.feed.Publish(feed.Event{
			Type:          string(op),
			ApplicationID: app.ID,
			StudentID:     app.StudentID,
			Status:        app.Status,
			PaymentStatus: app.PaymentStatus,
			Version:       app.Version,
			Actor:         actor.Label(),
			At:            app.UpdatedAt,
		})
	}
	return app, nil
}

// upload persists a blob, mapping store failures onto KindUpload
func (e *Engine) upload(ctx context.Context, op Action, blob []byte, kind, ownerID, contentType string) (string, error) {
	if e.files == nil {
		return "", newError(KindUpload, op, "no file store configured")
	}
	url, err := e.files.Upload(ctx, blob, filestore.PublicID(kind, ownerID), contentType)
	if err != nil {
		return "", wrapError(KindUpload, op, err, "failed to upload %s document", kind)
	}
	return url, nil
}

// orphaned logs an uploaded file whose transition did not commit. Store failures
// are escalated to KindPartial since the upload cannot be rolled back.
func (e *Engine) orphaned(op Action, appID, url string, err error) error {
	e.log.WithFields(logrus.Fields{
		"op":             op,
		"application_id": appID,
		"url":            url,
	}).WithError(err).Warn("uploaded file orphaned by failed transition")

	var le *Error
	if errors.As(err, &le) && le.Kind == KindStore {
		return &Error{
			Kind:    KindPartial,
			Op:      op,
			Message: "file uploaded but application not updated",
			Fields:  map[string]string{"url": url},
			Err:     err,
		}
	}
	return err
}
