// application.go
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

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status is the lifecycle stage of an application
type Status string

const (
	StatusPending             Status = "pending"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusInProgress          Status = "in_progress"
	StatusCompleted           Status = "completed"
	StatusTerminated          Status = "terminated"
)

// ActiveStatuses are the statuses that block a student from submitting again
var ActiveStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusPendingConfirmation,
	StatusInProgress,
}

// IsActive reports whether s is a non-terminal status
func (s Status) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusTerminated
}

// PaymentStatus is the payment sub-state of an approved application
type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentVerificationPending PaymentStatus = "verification_pending"
	PaymentVerified            PaymentStatus = "verified"
	PaymentRejected            PaymentStatus = "rejected"
)

// InternshipType is the kind of training requested
type InternshipType string

const (
	IndustrialTraining InternshipType = "Industrial Training"
	SummerInternship   InternshipType = "Summer Internship"
	ProjectWork        InternshipType = "Project Work"
)

// Valid reports whether t is a known internship type
func (t InternshipType) Valid() bool {
	return t == IndustrialTraining || t == SummerInternship || t == ProjectWork
}

// PostingLetter is one departmental assignment issued during an internship.
// Entries are appended and never edited.
type PostingLetter struct {
	ID       string    `json:"id"`
	Period   string    `json:"period"`
	Plant    string    `json:"plant"`
	URL      string    `json:"url"`
	IssuedAt time.Time `json:"issuedAt"`
	IssuedBy string    `json:"issuedBy"`
}

// StudentStatusIndex covers the single active application lookup
const StudentStatusIndex = "idx_applications_student_status"

// Application is one student's request for an internship slot and its full lifecycle record
type Application struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	Version uint64 `gorm:"not null;default:0" json:"version"`

	StudentID   string `gorm:"size:128;not null;index:idx_applications_student_status,priority:1" json:"studentId"`
	StudentName string `gorm:"size:255;not null" json:"studentName"`
	Email       string `gorm:"size:255" json:"email"`
	Phone       string `gorm:"size:32" json:"phone"`
	Discipline  string `gorm:"size:255" json:"discipline"`

	CollegeName        string  `gorm:"size:255" json:"collegeName"`
	PendingCollegeID   *string `gorm:"size:36;index" json:"pendingCollegeId,omitempty"`
	PendingCollegeName string  `gorm:"size:255" json:"pendingCollegeName,omitempty"`

	InternshipType     InternshipType `gorm:"size:64;not null" json:"internshipType"`
	SlotID             string         `gorm:"size:36;index" json:"slotId"`
	DurationValue      int            `gorm:"not null" json:"durationValue"`
	DurationType       string         `gorm:"size:16;not null" json:"durationType"`
	PreferredStartDate Date           `json:"preferredStartDate"`
	PreferredEndDate   Date           `json:"preferredEndDate"`

	ReceivedConfirmation     bool   `gorm:"not null;default:false" json:"receivedConfirmation"`
	ConfirmationNumber       string `gorm:"size:128" json:"confirmationNumber,omitempty"`
	FinalConfirmationNumber  string `gorm:"size:128" json:"finalConfirmationNumber,omitempty"`
	ConfirmationRejectReason string `gorm:"type:text" json:"confirmationRejectReason,omitempty"`

	CoverLetterURL    string                             `gorm:"size:1024" json:"coverLetterURL,omitempty"`
	ApprovalLetterURL string                             `gorm:"size:1024" json:"approvalLetterURL,omitempty"`
	PostingLetters    datatypes.JSONSlice[PostingLetter] `json:"postingLetters"`

	PaymentStatus        PaymentStatus `gorm:"size:32;not null;index" json:"paymentStatus"`
	PaymentReceiptNumber string        `gorm:"size:128" json:"paymentReceiptNumber,omitempty"`
	PaymentReceiptURL    string        `gorm:"size:1024" json:"paymentReceiptURL,omitempty"`
	PaymentRejectReason  string        `gorm:"type:text" json:"paymentRejectReason,omitempty"`
	PaymentSubmittedAt   *time.Time    `json:"paymentSubmittedAt,omitempty"`

	Status Status `gorm:"size:32;not null;index:idx_applications_student_status,priority:2;index" json:"status"`

	ApprovedBy string     `gorm:"size:128" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`

	RejectedBy      string     `gorm:"size:128" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`

	PaymentVerifiedBy string     `gorm:"size:128" json:"paymentVerifiedBy,omitempty"`
	PaymentVerifiedAt *time.Time `json:"paymentVerifiedAt,omitempty"`
	PaymentRejectedBy string     `gorm:"size:128" json:"paymentRejectedBy,omitempty"`
	PaymentRejectedAt *time.Time `json:"paymentRejectedAt,omitempty"`

	InternshipStartedBy string     `gorm:"size:128" json:"internshipStartedBy,omitempty"`
	InternshipStartedAt *time.Time `json:"internshipStartedAt,omitempty"`

	CompletedBy string     `gorm:"size:128" json:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	TerminatedBy      string     `gorm:"size:128" json:"terminatedBy,omitempty"`
	TerminatedAt      *time.Time `json:"terminatedAt,omitempty"`
	TerminationReason string     `gorm:"type:text" json:"terminationReason,omitempty"`

	ConfirmationRejectedBy string     `gorm:"size:128" json:"confirmationRejectedBy,omitempty"`
	ConfirmationRejectedAt *time.Time `json:"confirmationRejectedAt,omitempty"`

	ActualStartDate *Date `json:"actualStartDate,omitempty"`
	ActualEndDate   *Date `json:"actualEndDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the table name for Application
func (Application) TableName() string {
	return "applications"
}

// BeforeCreate assigns the opaque id
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// DisplayCollege returns the master college name or the pending one
func (a *Application) DisplayCollege() string {
	if a.CollegeName != "" {
		return a.CollegeName
	}
	return a.PendingCollegeName
}
