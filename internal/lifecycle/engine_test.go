package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/feed"
	"github.com/steelsid0609/training-rcf/internal/letters"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeFiles struct {
	mu      sync.Mutex
	fail    error
	uploads map[string][]byte
}

func (f *fakeFiles) Upload(ctx context.Context, blob []byte, publicID, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[publicID] = blob
	return "https://files.test/" + publicID, nil
}

func (f *fakeFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakeLetters struct {
	fail     error
	approval letters.ApprovalFields
	postings []letters.PostingFields
}

func (f *fakeLetters) RenderApproval(app *models.Application, fields letters.ApprovalFields) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.approval = fields
	return []byte("%PDF-approval"), nil
}

func (f *fakeLetters) RenderPosting(app *models.Application, fields letters.PostingFields) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.postings = append(f.postings, fields)
	return []byte("%PDF-posting"), nil
}

var (
	student    = Actor{UID: "stu-1", Email: "asha@example.com", Role: models.RoleStudent}
	student2   = Actor{UID: "stu-2", Email: "ravi@example.com", Role: models.RoleStudent}
	supervisor = Actor{UID: "sup-1", Email: "sup@example.com", Role: models.RoleSupervisor}
	admin      = Actor{UID: "adm-1", Email: "admin@example.com", Role: models.RoleAdmin}
)

var testNow = time.Date(2024, time.February, 20, 10, 0, 0, 0, time.UTC)

type harness struct {
	engine  *Engine
	db      *gorm.DB
	files   *fakeFiles
	letters *fakeLetters
	hub     *feed.Hub
	slot    *models.TrainingSlot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.New(t)
	h := &harness{
		db:      db,
		files:   &fakeFiles{},
		letters: &fakeLetters{},
		hub:     feed.NewHub(16, logging.Discard()),
	}
	h.engine = New(db, h.files, h.letters,
		WithLogger(logging.Discard()),
		WithClock(func() time.Time { return testNow }),
		WithPublisher(h.hub),
		WithLetterhead(letters.Letterhead{RefPrefix: "RCF/TRG"}),
	)
	h.slot = testdb.Slot(t, db, "March 2024", "2024-03-01")
	testdb.College(t, db, "Government Engineering College")
	return h
}

func (h *harness) form() SubmitInput {
	return SubmitInput{
		FullName:       "Asha Verma",
		Phone:          "9876543210",
		Discipline:     "Mechanical Engineering",
		CollegeName:    "Government Engineering College",
		InternshipType: models.IndustrialTraining,
		SlotID:         h.slot.ID,
		DurationValue:  2,
		DurationType:   "months",
	}
}

func (h *harness) submit(t *testing.T, actor Actor) *models.Application {
	t.Helper()
	app, err := h.engine.Submit(context.Background(), actor, h.form())
	require.NoError(t, err)
	return app
}

func (h *harness) approve(t *testing.T, id string) *models.Application {
	t.Helper()
	app, err := h.engine.Approve(context.Background(), supervisor, id, ApproveInput{
		ActualStartDate: date(t, "2024-03-05"),
	})
	require.NoError(t, err)
	return app
}

func (h *harness) confirmPayment(t *testing.T, actor Actor, id string) *models.Application {
	t.Helper()
	_, err := h.engine.SubmitPayment(context.Background(), actor, id, PaymentInput{ReceiptNumber: "RCPT-1"})
	require.NoError(t, err)
	app, err := h.engine.VerifyPayment(context.Background(), admin, id, nil)
	require.NoError(t, err)
	return app
}

func (h *harness) reload(t *testing.T, id string) *models.Application {
	t.Helper()
	var app models.Application
	require.NoError(t, h.db.First(&app, "id = ?", id).Error)
	return &app
}

func (h *harness) slotCount(t *testing.T, id string) int64 {
	t.Helper()
	var slot models.TrainingSlot
	require.NoError(t, h.db.First(&slot, "id = ?", id).Error)
	return slot.ApplicationCount
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.Parse(s)
	require.NoError(t, err)
	return d
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var le *Error
	require.True(t, errors.As(err, &le), "expected *lifecycle.Error, got %T: %v", err, err)
	require.Equal(t, kind, le.Kind, le.Error())
	return le
}

func TestSubmitDerivesPreferredDates(t *testing.T) {
	h := newHarness(t)

	app := h.submit(t, student)

	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, models.PaymentPending, app.PaymentStatus)
	assert.Equal(t, "2024-03-01", app.PreferredStartDate.String())
	assert.Equal(t, "2024-05-01", app.PreferredEndDate.String())
	assert.Equal(t, "Government Engineering College", app.CollegeName)
	assert.Equal(t, student.UID, app.StudentID)
	assert.Equal(t, student.Email, app.Email)
	assert.Empty(t, app.PostingLetters)
	assert.Equal(t, int64(0), h.slotCount(t, h.slot.ID))

	var user models.User
	require.NoError(t, h.db.First(&user, "id = ?", student.UID).Error)
	assert.Equal(t, "Asha Verma", user.FullName)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.ProfileComplete)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *SubmitInput)
		field  string
	}{
		{"missing name", func(in *SubmitInput) { in.FullName = "  " }, "fullName"},
		{"missing phone", func(in *SubmitInput) { in.Phone = "" }, "phone"},
		{"missing college", func(in *SubmitInput) { in.CollegeName = "" }, "collegeName"},
		{"bad internship type", func(in *SubmitInput) { in.InternshipType = "Apprenticeship" }, "internshipType"},
		{"missing slot", func(in *SubmitInput) { in.SlotID = "" }, "slotId"},
		{"zero duration", func(in *SubmitInput) { in.DurationValue = 0 }, "durationValue"},
		{"negative duration", func(in *SubmitInput) { in.DurationValue = -1 }, "durationValue"},
		{"bad duration type", func(in *SubmitInput) { in.DurationType = "fortnights" }, "durationType"},
		{"confirmation number required", func(in *SubmitInput) { in.ReceivedConfirmation = true }, "confirmationNumber"},
		{"unknown college", func(in *SubmitInput) { in.CollegeName = "Nowhere Institute" }, "collegeName"},
		{"unknown slot", func(in *SubmitInput) { in.SlotID = "missing" }, "slotId"},
		{"other college without details", func(in *SubmitInput) { in.CollegeName = "Other" }, "otherCollege"},
		{"other college without name", func(in *SubmitInput) {
			in.CollegeName = "other"
			in.OtherCollege = &models.CollegeDetails{City: "Patiala"}
		}, "otherCollege.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			in := h.form()
			tt.modify(&in)

			_, err := h.engine.Submit(context.Background(), student, in)
			le := requireKind(t, err, KindValidation)
			assert.Contains(t, le.Fields, tt.field)
			assert.ErrorIs(t, err, ErrValidation)

			var n int64
			h.db.Model(&models.Application{}).Count(&n)
			assert.Equal(t, int64(0), n)
		})
	}
}

func TestSubmitInactiveSlot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.db.Model(&models.TrainingSlot{}).Where("id = ?", h.slot.ID).Update("is_active", false).Error)

	_, err := h.engine.Submit(context.Background(), student, h.form())
	le := requireKind(t, err, KindValidation)
	assert.Equal(t, "slot is not open", le.Fields["slotId"])
}

func TestSubmitConfirmationNumberOnlyWhenReceived(t *testing.T) {
	h := newHarness(t)
	in := h.form()
	in.ConfirmationNumber = "IGNORED"

	app, err := h.engine.Submit(context.Background(), student, in)
	require.NoError(t, err)
	assert.False(t, app.ReceivedConfirmation)
	assert.Empty(t, app.ConfirmationNumber)
}

func TestSubmitSingleActiveApplication(t *testing.T) {
	h := newHarness(t)
	first := h.submit(t, student)

	_, err := h.engine.Submit(context.Background(), student, h.form())
	le := requireKind(t, err, KindActiveApplication)
	assert.Equal(t, first.ID, le.Fields["applicationId"])

	// another student is unaffected
	h.submit(t, student2)

	// a terminal application no longer blocks
	_, err = h.engine.Reject(context.Background(), supervisor, first.ID, ReasonInput{Reason: "incomplete documents"})
	require.NoError(t, err)
	h.submit(t, student)
}

func TestSubmitOtherCollege(t *testing.T) {
	h := newHarness(t)
	in := h.form()
	in.CollegeName = "Other"
	in.OtherCollege = &models.CollegeDetails{
		Name:          " New Polytechnic ",
		City:          "Patiala",
		PrincipalName: "Dr. Kaur",
		Faculties:     []models.Faculty{{Name: "Mechanical", Emails: []string{"mech@np.edu"}}},
	}

	app, err := h.engine.Submit(context.Background(), student, in)
	require.NoError(t, err)
	assert.Empty(t, app.CollegeName)
	require.NotNil(t, app.PendingCollegeID)
	assert.Equal(t, "New Polytechnic", app.PendingCollegeName)
	assert.Equal(t, "New Polytechnic", app.DisplayCollege())

	var temp models.TempCollege
	require.NoError(t, h.db.First(&temp, "id = ?", *app.PendingCollegeID).Error)
	assert.Equal(t, models.TempCollegePending, temp.Status)
	assert.Equal(t, student.UID, temp.SubmittedBy)
	require.NotNil(t, temp.ApplicationID)
	assert.Equal(t, app.ID, *temp.ApplicationID)
	assert.Equal(t, "Dr. Kaur", temp.PrincipalName)
	require.Len(t, temp.Faculties, 1)
	assert.Equal(t, []string{"mech@np.edu"}, temp.Faculties[0].Emails)
}

func TestSubmitCoverLetter(t *testing.T) {
	h := newHarness(t)
	in := h.form()
	in.CoverLetter = &File{Name: "cover.pdf", ContentType: "application/pdf", Data: []byte("cover")}

	app, err := h.engine.Submit(context.Background(), student, in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(app.CoverLetterURL, "https://files.test/cover/"+app.ID+"/"))
}

func TestSubmitCoverLetterUploadFailureCreatesNothing(t *testing.T) {
	h := newHarness(t)
	h.files.fail = errors.New("503 from upload endpoint")
	in := h.form()
	in.CoverLetter = &File{Data: []byte("cover")}

	_, err := h.engine.Submit(context.Background(), student, in)
	requireKind(t, err, KindUpload)
	assert.ErrorIs(t, err, ErrUpload)

	var n int64
	h.db.Model(&models.Application{}).Count(&n)
	assert.Equal(t, int64(0), n)
}

func TestSubmitRequiresStudent(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Submit(context.Background(), supervisor, h.form())
	requireKind(t, err, KindForbidden)

	_, err = h.engine.Submit(context.Background(), Actor{Role: models.RoleStudent}, h.form())
	requireKind(t, err, KindForbidden)
}

func TestApproveFinalizesSchedule(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)

	approved := h.approve(t, app.ID)

	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ActualStartDate)
	require.NotNil(t, approved.ActualEndDate)
	assert.Equal(t, "2024-03-05", approved.ActualStartDate.String())
	assert.Equal(t, "2024-05-05", approved.ActualEndDate.String())
	assert.Equal(t, supervisor.Email, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(testNow))
	assert.True(t, strings.HasPrefix(approved.ApprovalLetterURL, "https://files.test/approval/"+app.ID+"/"))
	assert.Equal(t, app.Version+1, approved.Version)
	assert.Equal(t, int64(1), h.slotCount(t, h.slot.ID))

	assert.Equal(t, "RCF/TRG/APL/2024/"+strings.ToUpper(strings.ReplaceAll(app.ID, "-", ""))[:8], h.letters.approval.Reference)
	assert.Equal(t, "March 2024", h.letters.approval.SlotLabel)
	assert.True(t, date(t, "2024-05-05").Equal(h.letters.approval.EndDate))
}

func TestApproveExplicitEndAndSlotOverride(t *testing.T) {
	h := newHarness(t)
	other := testdb.Slot(t, h.db, "April 2024", "2024-04-01")
	app := h.submit(t, student)
	end := date(t, "2024-05-31")

	approved, err := h.engine.Approve(context.Background(), admin, app.ID, ApproveInput{
		SlotID:          other.ID,
		ActualStartDate: date(t, "2024-04-01"),
		ActualEndDate:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, other.ID, approved.SlotID)
	assert.Equal(t, "2024-05-31", approved.ActualEndDate.String())
	assert.Equal(t, int64(1), h.slotCount(t, other.ID))
	assert.Equal(t, int64(0), h.slotCount(t, h.slot.ID))
}

func TestApproveInputValidation(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)

	_, err := h.engine.Approve(context.Background(), supervisor, app.ID, ApproveInput{})
	le := requireKind(t, err, KindValidation)
	assert.Contains(t, le.Fields, "actualStartDate")

	end := date(t, "2024-03-01")
	_, err = h.engine.Approve(context.Background(), supervisor, app.ID, ApproveInput{
		ActualStartDate: date(t, "2024-03-05"),
		ActualEndDate:   &end,
	})
	le = requireKind(t, err, KindValidation)
	assert.Contains(t, le.Fields, "actualEndDate")

	_, err = h.engine.Approve(context.Background(), supervisor, app.ID, ApproveInput{
		SlotID:          "missing",
		ActualStartDate: date(t, "2024-03-05"),
	})
	le = requireKind(t, err, KindValidation)
	assert.Contains(t, le.Fields, "slotId")

	assert.Equal(t, 0, h.files.count())
	assert.Equal(t, models.StatusPending, h.reload(t, app.ID).Status)
}

func TestApproveIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"upload failure", func(h *harness) { h.files.fail = errors.New("upload preset not found") }},
		{"render failure", func(h *harness) { h.letters.fail = errors.New("font missing") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			app := h.submit(t, student)
			tt.setup(h)

			_, err := h.engine.Approve(context.Background(), supervisor, app.ID, ApproveInput{
				ActualStartDate: date(t, "2024-03-05"),
			})
			requireKind(t, err, KindUpload)

			after := h.reload(t, app.ID)
			assert.Equal(t, models.StatusPending, after.Status)
			assert.Empty(t, after.ApprovalLetterURL)
			assert.Nil(t, after.ActualStartDate)
			assert.Nil(t, after.ApprovedAt)
			assert.Equal(t, app.Version, after.Version)
			assert.Equal(t, int64(0), h.slotCount(t, h.slot.ID))
		})
	}
}

func TestApproveRejectsNonPending(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	approved := h.approve(t, app.ID)

	_, err := h.engine.Approve(context.Background(), admin, app.ID, ApproveInput{
		ActualStartDate: date(t, "2024-06-01"),
	})
	requireKind(t, err, KindInvalidTransition)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	after := h.reload(t, app.ID)
	assert.Equal(t, approved.Version, after.Version)
	assert.Equal(t, "2024-03-05", after.ActualStartDate.String())
	assert.Equal(t, approved.ApprovalLetterURL, after.ApprovalLetterURL)
	assert.Equal(t, int64(1), h.slotCount(t, h.slot.ID))
}

func TestApproveStaleVersion(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	stale := app.Version + 7

	_, err := h.engine.Approve(context.Background(), supervisor, app.ID, ApproveInput{
		ActualStartDate: date(t, "2024-03-05"),
		ExpectedVersion: &stale,
	})
	requireKind(t, err, KindConflict)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 0, h.files.count())
}

func TestCommitLosesCompareAndSwap(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)

	// another operator moved the application on after we read it
	snapshot := *app
	require.NoError(t, h.db.Model(&models.Application{}).Where("id = ?", app.ID).
		Updates(map[string]interface{}{"status": models.StatusRejected, "version": app.Version + 1}).Error)

	err := h.engine.commit(context.Background(), ActionApprove, &snapshot, map[string]interface{}{
		"status": models.StatusApproved,
	}, func(tx *gorm.DB) error {
		t.Fatal("extra must not run after a lost compare")
		return nil
	})
	requireKind(t, err, KindConflict)
	assert.Equal(t, models.StatusRejected, h.reload(t, app.ID).Status)
}

func TestOrphanedUploadOnStoreFailureIsPartial(t *testing.T) {
	h := newHarness(t)
	storeErr := wrapError(KindStore, ActionApprove, errors.New("connection reset"), "failed to update application")
	err := h.engine.orphaned(ActionApprove, "a1", "https://files.test/x", storeErr)
	le := requireKind(t, err, KindPartial)
	assert.Equal(t, "https://files.test/x", le.Fields["url"])

	conflict := newError(KindConflict, ActionApprove, "lost")
	assert.Same(t, conflict, h.engine.orphaned(ActionApprove, "a1", "https://files.test/x", conflict))
}

func TestRejectRequiresReasonAndIsTerminal(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)

	_, err := h.engine.Reject(context.Background(), supervisor, app.ID, ReasonInput{Reason: "  "})
	requireKind(t, err, KindValidation)

	rejected, err := h.engine.Reject(context.Background(), supervisor, app.ID, ReasonInput{Reason: "Seats full"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "Seats full", rejected.RejectionReason)
	assert.Equal(t, supervisor.Email, rejected.RejectedBy)
	assert.NotNil(t, rejected.RejectedAt)

	_, err = h.engine.Approve(context.Background(), supervisor, app.ID, ApproveInput{ActualStartDate: date(t, "2024-03-05")})
	requireKind(t, err, KindInvalidTransition)
	assert.Equal(t, int64(0), h.slotCount(t, h.slot.ID))
}

func TestRejectOnlyFromPending(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)

	_, err := h.engine.Reject(context.Background(), supervisor, app.ID, ReasonInput{Reason: "changed mind"})
	requireKind(t, err, KindInvalidTransition)
}

func TestPaymentRetryLoop(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)
	ctx := context.Background()

	submitted, err := h.engine.SubmitPayment(ctx, student, app.ID, PaymentInput{ReceiptNumber: "RCPT-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationPending, submitted.PaymentStatus)
	assert.Equal(t, models.StatusApproved, submitted.Status)
	assert.NotNil(t, submitted.PaymentSubmittedAt)

	rejected, err := h.engine.RejectPayment(ctx, supervisor, app.ID, ReasonInput{Reason: "receipt unreadable"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRejected, rejected.PaymentStatus)
	assert.Equal(t, models.StatusApproved, rejected.Status)
	assert.Equal(t, "receipt unreadable", rejected.PaymentRejectReason)

	resubmitted, err := h.engine.SubmitPayment(ctx, student, app.ID, PaymentInput{
		ReceiptNumber: "RCPT-2",
		Receipt:       &File{Name: "receipt.png", ContentType: "image/png", Data: []byte("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerificationPending, resubmitted.PaymentStatus)
	assert.Equal(t, models.StatusApproved, resubmitted.Status)
	assert.Equal(t, "RCPT-2", resubmitted.PaymentReceiptNumber)
	assert.Empty(t, resubmitted.PaymentRejectReason)
	assert.True(t, strings.HasPrefix(resubmitted.PaymentReceiptURL, "https://files.test/receipt/"))

	assert.Equal(t, int64(1), h.slotCount(t, h.slot.ID))
}

func TestSubmitPaymentPreconditions(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	ctx := context.Background()

	_, err := h.engine.SubmitPayment(ctx, student, app.ID, PaymentInput{ReceiptNumber: "RCPT-1"})
	requireKind(t, err, KindInvalidTransition)

	h.approve(t, app.ID)

	_, err = h.engine.SubmitPayment(ctx, student, app.ID, PaymentInput{ReceiptNumber: " "})
	requireKind(t, err, KindValidation)

	_, err = h.engine.SubmitPayment(ctx, student2, app.ID, PaymentInput{ReceiptNumber: "RCPT-1"})
	requireKind(t, err, KindForbidden)

	_, err = h.engine.SubmitPayment(ctx, student, app.ID, PaymentInput{ReceiptNumber: "RCPT-1"})
	require.NoError(t, err)

	// awaiting verification, a second receipt is refused
	_, err = h.engine.SubmitPayment(ctx, student, app.ID, PaymentInput{ReceiptNumber: "RCPT-2"})
	requireKind(t, err, KindInvalidTransition)
}

func TestVerifyPaymentOnPendingIsRejected(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)

	_, err := h.engine.VerifyPayment(context.Background(), supervisor, app.ID, nil)
	le := requireKind(t, err, KindInvalidTransition)
	assert.Equal(t, "pending", le.Fields["status"])

	after := h.reload(t, app.ID)
	assert.Equal(t, app.Version, after.Version)
	assert.Equal(t, models.StatusPending, after.Status)
	assert.Equal(t, models.PaymentPending, after.PaymentStatus)
	assert.Nil(t, after.PaymentVerifiedAt)
	assert.Empty(t, after.PaymentVerifiedBy)
}

func TestVerifyPaymentMovesToPendingConfirmation(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)

	_, err := h.engine.VerifyPayment(context.Background(), supervisor, app.ID, nil)
	requireKind(t, err, KindInvalidTransition)

	verified := h.confirmPayment(t, student, app.ID)
	assert.Equal(t, models.StatusPendingConfirmation, verified.Status)
	assert.Equal(t, models.PaymentVerified, verified.PaymentStatus)
	assert.Equal(t, admin.Email, verified.PaymentVerifiedBy)
	assert.NotNil(t, verified.PaymentVerifiedAt)
}

func TestPostingLetters(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)
	h.confirmPayment(t, student, app.ID)
	ctx := context.Background()

	first, err := h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: "2024-03-05 to 2024-04-04",
		Plant:  "Ammonia Plant",
		Mode:   PostingAuto,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, first.Status)
	assert.Equal(t, supervisor.Email, first.InternshipStartedBy)
	require.NotNil(t, first.InternshipStartedAt)
	require.Len(t, first.PostingLetters, 1)
	firstLetter := first.PostingLetters[0]
	assert.Equal(t, "Ammonia Plant", firstLetter.Plant)
	assert.NotEmpty(t, firstLetter.ID)
	assert.True(t, strings.HasPrefix(firstLetter.URL, "https://files.test/posting/"+app.ID+"/"))

	second, err := h.engine.IssuePostingLetter(ctx, admin, app.ID, PostingLetterInput{
		Period: "2024-04-05 to 2024-05-05",
		Plant:  "Urea Plant",
		Mode:   PostingManual,
		File:   &File{Name: "posting.pdf", ContentType: "application/pdf", Data: []byte("manual")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, second.Status)
	require.Len(t, second.PostingLetters, 2)
	assert.Equal(t, firstLetter, second.PostingLetters[0])
	assert.Equal(t, "Urea Plant", second.PostingLetters[1].Plant)
	assert.Equal(t, admin.Email, second.PostingLetters[1].IssuedBy)
	assert.NotEqual(t, firstLetter.ID, second.PostingLetters[1].ID)
	// the start stamp belongs to the first letter only
	assert.Equal(t, supervisor.Email, second.InternshipStartedBy)

	require.Len(t, h.letters.postings, 1)
	assert.Equal(t, 1, h.letters.postings[0].Sequence)
	assert.True(t, strings.HasSuffix(h.letters.postings[0].Reference, "/1"))
}

func TestPostingLetterPreconditions(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)
	ctx := context.Background()

	_, err := h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: "March", Plant: "Ammonia Plant", Mode: PostingAuto,
	})
	requireKind(t, err, KindInvalidTransition)

	h.confirmPayment(t, student, app.ID)

	_, err = h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: "March", Plant: "Ammonia Plant", Mode: PostingManual,
	})
	le := requireKind(t, err, KindValidation)
	assert.Contains(t, le.Fields, "file")

	_, err = h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: "March", Plant: "Ammonia Plant", Mode: "fax",
	})
	requireKind(t, err, KindValidation)

	_, err = h.engine.IssuePostingLetter(ctx, student, app.ID, PostingLetterInput{
		Period: "March", Plant: "Ammonia Plant", Mode: PostingAuto,
	})
	requireKind(t, err, KindForbidden)

	_, err = h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: strings.Repeat("March ", 40), Plant: "Ammonia Plant", Mode: PostingAuto,
	})
	le = requireKind(t, err, KindValidation)
	assert.Equal(t, "max", le.Fields["period"])

	h.letters.fail = fmt.Errorf("letter %q: %w", "PST/1", letters.ErrOverflow)
	_, err = h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: "March", Plant: "Ammonia Plant", Mode: PostingAuto,
	})
	requireKind(t, err, KindValidation)
	h.letters.fail = nil

	h.files.fail = errors.New("timeout")
	_, err = h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{
		Period: "March", Plant: "Ammonia Plant", Mode: PostingAuto,
	})
	requireKind(t, err, KindUpload)
	after := h.reload(t, app.ID)
	assert.Equal(t, models.StatusPendingConfirmation, after.Status)
	assert.Empty(t, after.PostingLetters)
}

func TestRejectConfirmationAndResubmit(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)
	h.confirmPayment(t, student, app.ID)
	ctx := context.Background()

	confirmed, err := h.engine.SubmitConfirmation(ctx, student, app.ID, ConfirmationInput{FinalConfirmationNumber: "FC-100"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, confirmed.Status)
	assert.Equal(t, "FC-100", confirmed.FinalConfirmationNumber)

	_, err = h.engine.RejectConfirmation(ctx, supervisor, app.ID, ReasonInput{})
	requireKind(t, err, KindValidation)

	rolledBack, err := h.engine.RejectConfirmation(ctx, supervisor, app.ID, ReasonInput{Reason: "number does not match"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, rolledBack.Status)
	assert.Empty(t, rolledBack.FinalConfirmationNumber)
	assert.Equal(t, "number does not match", rolledBack.ConfirmationRejectReason)
	assert.Equal(t, supervisor.Email, rolledBack.ConfirmationRejectedBy)
	assert.Equal(t, models.PaymentVerified, rolledBack.PaymentStatus)

	resubmitted, err := h.engine.SubmitConfirmation(ctx, student, app.ID, ConfirmationInput{FinalConfirmationNumber: "FC-101"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, resubmitted.Status)
	assert.Equal(t, "FC-101", resubmitted.FinalConfirmationNumber)
	assert.Empty(t, resubmitted.ConfirmationRejectReason)
}

func TestSubmitConfirmationNeedsVerifiedPayment(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	h.approve(t, app.ID)

	_, err := h.engine.SubmitConfirmation(context.Background(), student, app.ID, ConfirmationInput{FinalConfirmationNumber: "FC-1"})
	le := requireKind(t, err, KindInvalidTransition)
	assert.Equal(t, "pending", le.Fields["paymentStatus"])
}

func TestCompletionAndTermination(t *testing.T) {
	ctx := context.Background()

	t.Run("complete from in progress", func(t *testing.T) {
		h := newHarness(t)
		app := h.submit(t, student)
		h.approve(t, app.ID)
		h.confirmPayment(t, student, app.ID)
		_, err := h.engine.IssuePostingLetter(ctx, supervisor, app.ID, PostingLetterInput{Period: "March", Plant: "Ammonia Plant", Mode: PostingAuto})
		require.NoError(t, err)

		done, err := h.engine.MarkCompleted(ctx, supervisor, app.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, done.Status)
		assert.Equal(t, supervisor.Email, done.CompletedBy)
		assert.NotNil(t, done.CompletedAt)

		_, err = h.engine.Terminate(ctx, supervisor, app.ID, ReasonInput{})
		requireKind(t, err, KindInvalidTransition)

		// completed is terminal, a new application may be submitted
		h.submit(t, student)
	})

	t.Run("complete from pending confirmation", func(t *testing.T) {
		h := newHarness(t)
		app := h.submit(t, student)
		h.approve(t, app.ID)
		h.confirmPayment(t, student, app.ID)

		done, err := h.engine.MarkCompleted(ctx, admin, app.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, done.Status)
	})

	t.Run("terminate without reason", func(t *testing.T) {
		h := newHarness(t)
		app := h.submit(t, student)
		h.approve(t, app.ID)
		h.confirmPayment(t, student, app.ID)

		ended, err := h.engine.Terminate(ctx, admin, app.ID, ReasonInput{})
		require.NoError(t, err)
		assert.Equal(t, models.StatusTerminated, ended.Status)
		assert.Equal(t, admin.Email, ended.TerminatedBy)
		assert.Empty(t, ended.TerminationReason)

		_, err = h.engine.MarkCompleted(ctx, admin, app.ID, nil)
		requireKind(t, err, KindInvalidTransition)

		// no decrement on termination
		assert.Equal(t, int64(1), h.slotCount(t, h.slot.ID))
	})

	t.Run("not from approved", func(t *testing.T) {
		h := newHarness(t)
		app := h.submit(t, student)
		h.approve(t, app.ID)

		_, err := h.engine.MarkCompleted(ctx, admin, app.ID, nil)
		requireKind(t, err, KindInvalidTransition)
		_, err = h.engine.Terminate(ctx, admin, app.ID, ReasonInput{Reason: "absent"})
		requireKind(t, err, KindInvalidTransition)
	})
}

func TestCoverLetterIsImmutable(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	ctx := context.Background()
	file := &File{Name: "cover.pdf", ContentType: "application/pdf", Data: []byte("cover")}

	_, err := h.engine.UploadCoverLetter(ctx, student, app.ID, CoverLetterInput{})
	requireKind(t, err, KindValidation)

	_, err = h.engine.UploadCoverLetter(ctx, student2, app.ID, CoverLetterInput{File: file})
	requireKind(t, err, KindForbidden)

	withCover, err := h.engine.UploadCoverLetter(ctx, student, app.ID, CoverLetterInput{File: file})
	require.NoError(t, err)
	assert.NotEmpty(t, withCover.CoverLetterURL)
	assert.Equal(t, models.StatusPending, withCover.Status)

	_, err = h.engine.UploadCoverLetter(ctx, student, app.ID, CoverLetterInput{File: file})
	le := requireKind(t, err, KindInvalidTransition)
	assert.Contains(t, le.Fields, "coverLetterURL")
	assert.Equal(t, withCover.CoverLetterURL, h.reload(t, app.ID).CoverLetterURL)
	assert.Equal(t, 1, h.files.count())
}

func TestStaffOnlyOperations(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, student)
	ctx := context.Background()

	_, err := h.engine.Approve(ctx, student, app.ID, ApproveInput{ActualStartDate: date(t, "2024-03-05")})
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.engine.Reject(ctx, student, app.ID, ReasonInput{Reason: "nope"})
	requireKind(t, err, KindForbidden)

	_, err = h.engine.VerifyPayment(ctx, student, app.ID, nil)
	requireKind(t, err, KindForbidden)

	_, err = h.engine.Approve(ctx, supervisor, "missing", ApproveInput{ActualStartDate: date(t, "2024-03-05")})
	requireKind(t, err, KindNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlotCountOnlyMovesOnApprove(t *testing.T) {
	h := newHarness(t)
	a := h.submit(t, student)
	b := h.submit(t, student2)
	ctx := context.Background()

	_, err := h.engine.Reject(ctx, supervisor, b.ID, ReasonInput{Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.slotCount(t, h.slot.ID))

	h.approve(t, a.ID)
	assert.Equal(t, int64(1), h.slotCount(t, h.slot.ID))

	h.confirmPayment(t, student, a.ID)
	_, err = h.engine.RejectConfirmation(ctx, supervisor, a.ID, ReasonInput{Reason: "mismatch"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.slotCount(t, h.slot.ID))
}

func TestCommittedChangesArePublished(t *testing.T) {
	h := newHarness(t)
	events, cancel := h.hub.Subscribe(feed.ForStudent(student.UID))
	defer cancel()

	app := h.submit(t, student)
	h.approve(t, app.ID)

	submitted := <-events
	assert.Equal(t, string(ActionSubmit), submitted.Type)
	assert.Equal(t, models.StatusPending, submitted.Status)

	approved := <-events
	assert.Equal(t, string(ActionApprove), approved.Type)
	assert.Equal(t, app.ID, approved.ApplicationID)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, supervisor.Email, approved.Actor)
	assert.Equal(t, app.Version+1, approved.Version)
}

func TestGetAndList(t *testing.T) {
	h := newHarness(t)
	mine := h.submit(t, student)
	theirs := h.submit(t, student2)
	ctx := context.Background()

	got, err := h.engine.Get(ctx, student, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = h.engine.Get(ctx, student, theirs.ID)
	requireKind(t, err, KindNotFound)

	_, err = h.engine.Get(ctx, supervisor, theirs.ID)
	require.NoError(t, err)

	list, err := h.engine.List(ctx, student, ListFilter{StudentID: student2.UID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = h.engine.List(ctx, admin, ListFilter{Status: []models.Status{models.StatusPending}})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	h.approve(t, mine.ID)
	list, err = h.engine.List(ctx, supervisor, ListFilter{Status: []models.Status{models.StatusApproved}, SlotID: h.slot.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = h.engine.List(ctx, supervisor, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
