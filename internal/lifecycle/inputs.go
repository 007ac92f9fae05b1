package lifecycle

import (
	"strings"
	"time"

	"github.com/steelsid0609/training-rcf/internal/models"
)

// OtherCollege is the college selection that submits a new temp college
const OtherCollege = "Other"

// File is an uploaded document
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *File) empty() bool {
	return f == nil || len(f.Data) == 0
}

func (f *File) contentType() string {
	if f.ContentType == "" {
		return "application/octet-stream"
	}
	return f.ContentType
}

// SubmitInput is a student's application form
type SubmitInput struct {
	FullName             string                 `json:"fullName" validate:"required"`
	Email                string                 `json:"email" validate:"omitempty,email"`
	Phone                string                 `json:"phone" validate:"required"`
	Discipline           string                 `json:"discipline"`
	CollegeName          string                 `json:"collegeName" validate:"required"`
	OtherCollege         *models.CollegeDetails `json:"otherCollege" validate:"required_if=CollegeName Other"`
	InternshipType       models.InternshipType  `json:"internshipType" validate:"required,oneof='Industrial Training' 'Summer Internship' 'Project Work'"`
	SlotID               string                 `json:"slotId" validate:"required"`
	DurationValue        int                    `json:"durationValue" validate:"required,gt=0"`
	DurationType         string                 `json:"durationType" validate:"required"`
	ReceivedConfirmation bool                   `json:"receivedConfirmation"`
	ConfirmationNumber   string                 `json:"confirmationNumber" validate:"required_if=ReceivedConfirmation true"`
	CoverLetter          *File                  `json:"-"`
}

func (in *SubmitInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Discipline = strings.TrimSpace(in.Discipline)
	in.CollegeName = strings.TrimSpace(in.CollegeName)
	if strings.EqualFold(in.CollegeName, OtherCollege) {
		in.CollegeName = OtherCollege
	}
	in.SlotID = strings.TrimSpace(in.SlotID)
	in.ConfirmationNumber = strings.TrimSpace(in.ConfirmationNumber)
	if !in.ReceivedConfirmation {
		in.ConfirmationNumber = ""
	}
	if in.OtherCollege != nil {
		in.OtherCollege.Name = strings.TrimSpace(in.OtherCollege.Name)
	}
}

// ApproveInput carries the operator-confirmed schedule. An empty SlotID keeps the
// student's slot; a nil ActualEndDate is derived from the application's duration.
type ApproveInput struct {
	SlotID          string     `json:"slotId"`
	ActualStartDate time.Time  `json:"actualStartDate"`
	ActualEndDate   *time.Time `json:"actualEndDate"`
	ExpectedVersion *uint64    `json:"-"`
}

// ReasonInput carries an operator's free text reason
type ReasonInput struct {
	Reason          string  `json:"reason"`
	ExpectedVersion *uint64 `json:"-"`
}

// PaymentInput is a student's fee receipt
type PaymentInput struct {
	ReceiptNumber   string  `json:"receiptNumber" validate:"required"`
	Receipt         *File   `json:"-"`
	ExpectedVersion *uint64 `json:"-"`
}

// PostingMode selects how a posting letter document is produced
type PostingMode string

const (
	PostingAuto   PostingMode = "auto"
	PostingManual PostingMode = "manual"
)

// PostingLetterInput describes one departmental posting
type PostingLetterInput struct {
	Period          string      `json:"period" validate:"required,max=200"`
	Plant           string      `json:"plant" validate:"required,max=200"`
	Mode            PostingMode `json:"mode" validate:"required,oneof=auto manual"`
	File            *File       `json:"-"`
	ExpectedVersion *uint64     `json:"-"`
}

// ConfirmationInput is the student's final confirmation number
type ConfirmationInput struct {
	FinalConfirmationNumber string  `json:"finalConfirmationNumber" validate:"required"`
	ExpectedVersion         *uint64 `json:"-"`
}

// CoverLetterInput is a cover letter added after submission
type CoverLetterInput struct {
	File            *File   `json:"-"`
	ExpectedVersion *uint64 `json:"-"`
}
