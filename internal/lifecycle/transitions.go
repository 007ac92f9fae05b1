// transitions.go
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

package lifecycle

import (
	"github.com/steelsid0609/training-rcf/internal/models"
)

// Action names a lifecycle operation
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionSubmitPayment      Action = "submit_payment"
	ActionVerifyPayment      Action = "verify_payment"
	ActionRejectPayment      Action = "reject_payment"
	ActionIssuePostingLetter Action = "issue_posting_letter"
	ActionMarkCompleted      Action = "mark_completed"
	ActionTerminate          Action = "terminate"
	ActionRejectConfirmation Action = "reject_confirmation"
	ActionSubmitConfirmation Action = "submit_confirmation"
	ActionUploadCoverLetter  Action = "upload_cover_letter"
)

// Transition is one row of the state machine.
// An empty To leaves the status unchanged.
type Transition struct {
	From   []models.Status
	To     models.Status
	Actors []models.Role
	// Owner restricts the actor to the student who owns the application
	Owner bool
}

var staff = []models.Role{models.RoleSupervisor, models.RoleAdmin}

var transitions = map[Action]Transition{
	ActionSubmit: {
		To:     models.StatusPending,
		Actors: []models.Role{models.RoleStudent},
	},
	ActionApprove: {
		From:   []models.Status{models.StatusPending},
		To:     models.StatusApproved,
		Actors: staff,
	},
	ActionReject: {
		From:   []models.Status{models.StatusPending},
		To:     models.StatusRejected,
		Actors: staff,
	},
	ActionSubmitPayment: {
		From:   []models.Status{models.StatusApproved},
		Actors: []models.Role{models.RoleStudent},
		Owner:  true,
	},
	ActionVerifyPayment: {
		From:   []models.Status{models.StatusApproved},
		To:     models.StatusPendingConfirmation,
		Actors: staff,
	},
	ActionRejectPayment: {
		From:   []models.Status{models.StatusApproved},
		Actors: staff,
	},
	// pending_confirmation moves to in_progress on the first letter only
	ActionIssuePostingLetter: {
		From:   []models.Status{models.StatusPendingConfirmation, models.StatusInProgress},
		To:     models.StatusInProgress,
		Actors: staff,
	},
	ActionMarkCompleted: {
		From:   []models.Status{models.StatusPendingConfirmation, models.StatusInProgress},
		To:     models.StatusCompleted,
		Actors: staff,
	},
	ActionTerminate: {
		From:   []models.Status{models.StatusPendingConfirmation, models.StatusInProgress},
		To:     models.StatusTerminated,
		Actors: staff,
	},
	ActionRejectConfirmation: {
		From:   []models.Status{models.StatusPendingConfirmation},
		To:     models.StatusApproved,
		Actors: staff,
	},
	ActionSubmitConfirmation: {
		From:   []models.Status{models.StatusApproved, models.StatusPendingConfirmation},
		To:     models.StatusPendingConfirmation,
		Actors: []models.Role{models.RoleStudent},
		Owner:  true,
	},
	ActionUploadCoverLetter: {
		From:   models.ActiveStatuses,
		Actors: []models.Role{models.RoleStudent},
		Owner:  true,
	},
}

// Transitions returns a copy of the state machine, keyed by action
func Transitions() map[Action]Transition {
	out := make(map[Action]Transition, len(transitions))
	for k, v := range transitions {
		out[k] = v
	}
	return out
}

// Allows reports whether role may invoke action at all
func Allows(action Action, role models.Role) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, r := range t.Actors {
		if r == role {
			return true
		}
	}
	return false
}

// CanTransition reports whether action may start from status
func CanTransition(action Action, status models.Status) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range t.From {
		if s == status {
			return true
		}
	}
	return false
}

// Available lists the actions role may take on an application in status
func Available(status models.Status, role models.Role) []Action {
	order := []Action{
		ActionApprove, ActionReject, ActionSubmitPayment, ActionVerifyPayment, ActionRejectPayment,
		ActionIssuePostingLetter, ActionMarkCompleted, ActionTerminate, ActionRejectConfirmation,
		ActionSubmitConfirmation, ActionUploadCoverLetter,
	}
	var out []Action
	for _, a := range order {
		if Allows(a, role) && CanTransition(a, status) {
			out = append(out, a)
		}
	}
	return out
}

func authorize(op Action, actor Actor) error {
	if actor.UID == "" {
		return newError(KindForbidden, op, "missing actor identity")
	}
	if !Allows(op, actor.Role) {
		return newError(KindForbidden, op, "role %q may not %s", actor.Role, op)
	}
	return nil
}

func authorizeOwner(op Action, actor Actor, app *models.Application) error {
	if transitions[op].Owner && app.StudentID != actor.UID {
		return newError(KindForbidden, op, "application belongs to another student")
	}
	return nil
}

func checkFrom(op Action, app *models.Application) error {
	if !CanTransition(op, app.Status) {
		return &Error{
			Kind:    KindInvalidTransition,
			Op:      op,
			Message: "cannot " + string(op) + " an application in status " + string(app.Status),
			Fields:  map[string]string{"status": string(app.Status)},
		}
	}
	return nil
}
