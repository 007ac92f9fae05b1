package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/lifecycle"
	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/types"
	"github.com/steelsid0609/training-rcf/internal/utils"
)

// ApplicationHandler exposes the lifecycle engine
type ApplicationHandler struct {
	Engine *lifecycle.Engine
}

func (h *ApplicationHandler) mutated(c *fiber.Ctx, status int, app *models.Application, err error) error {
	if err != nil {
		return lifecycleError(c, err)
	}
	return utils.MutationSuccessResponse(c, status, app.Version, app)
}

type submitRequest struct {
	FullName             string               `json:"fullName" form:"fullName"`
	Email                string               `json:"email" form:"email"`
	Phone                string               `json:"phone" form:"phone"`
	Discipline           string               `json:"discipline" form:"discipline"`
	CollegeName          string               `json:"collegeName" form:"collegeName"`
	OtherCollege         *otherCollegeRequest `json:"otherCollege" form:"-"`
	InternshipType       string               `json:"internshipType" form:"internshipType"`
	SlotID               string               `json:"slotId" form:"slotId"`
	DurationValue        int                  `json:"durationValue" form:"durationValue"`
	DurationType         string               `json:"durationType" form:"durationType"`
	ReceivedConfirmation bool                 `json:"receivedConfirmation" form:"receivedConfirmation"`
	ConfirmationNumber   string               `json:"confirmationNumber" form:"confirmationNumber"`
}

type otherCollegeRequest struct {
	Name             string                         `json:"name"`
	Address          string                         `json:"address"`
	City             string                         `json:"city"`
	PrincipalName    string                         `json:"principalName"`
	PrincipalEmail   string                         `json:"principalEmail"`
	PrincipalContact string                         `json:"principalContact"`
	Faculties        types.FlexList[models.Faculty] `json:"faculties"`
}

func (r otherCollegeRequest) details() *models.CollegeDetails {
	return &models.CollegeDetails{
		Name:             r.Name,
		Address:          r.Address,
		City:             r.City,
		PrincipalName:    r.PrincipalName,
		PrincipalEmail:   r.PrincipalEmail,
		PrincipalContact: r.PrincipalContact,
		Faculties:        r.Faculties.Slice(),
	}
}

// Submit handles POST /api/applications
// @Summary Submit an application
// @Description Student submits an internship application, optionally with a cover letter (multipart field coverLetter)
// @Tags Applications
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	var body submitRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}

	if raw := c.FormValue("otherCollege"); isMultipart(c) && raw != "" && raw != "null" {
		body.OtherCollege = &otherCollegeRequest{}
		if err := c.App().Config().JSONDecoder([]byte(raw), body.OtherCollege); err != nil {
			return badRequest(c, "Invalid otherCollege")
		}
	}
	var other *models.CollegeDetails
	if body.OtherCollege != nil {
		other = body.OtherCollege.details()
	}

	cover, err := formFile(c, "coverLetter")
	if err != nil {
		return badRequest(c, err.Error())
	}

	app, err := h.Engine.Submit(c.UserContext(), actorOf(c), lifecycle.SubmitInput{
		FullName:             body.FullName,
		Email:                body.Email,
		Phone:                body.Phone,
		Discipline:           body.Discipline,
		CollegeName:          body.CollegeName,
		OtherCollege:         other,
		InternshipType:       models.InternshipType(body.InternshipType),
		SlotID:               body.SlotID,
		DurationValue:        body.DurationValue,
		DurationType:         body.DurationType,
		ReceivedConfirmation: body.ReceivedConfirmation,
		ConfirmationNumber:   body.ConfirmationNumber,
		CoverLetter:          cover,
	})
	return h.mutated(c, fiber.StatusCreated, app, err)
}

// List handles GET /api/applications
// @Summary List applications
// @Description Students see their own applications; staff may filter by status, paymentStatus, studentId and slotId
// @Tags Applications
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param paymentStatus query string false "Payment status"
// @Param studentId query string false "Student id (staff only)"
// @Param slotId query string false "Slot id"
// @Param limit query int false "Page size, at most 200"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Application
// @Security CookieAuth
// @Router /applications [get]
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	f := lifecycle.ListFilter{
		PaymentStatus: models.PaymentStatus(c.Query("paymentStatus")),
		StudentID:     c.Query("studentId"),
		SlotID:        c.Query("slotId"),
		Limit:         c.QueryInt("limit", 0),
		Offset:        c.QueryInt("offset", 0),
	}
	for _, s := range parseList(c, "status") {
		f.Status = append(f.Status, models.Status(s))
	}

	apps, err := h.Engine.List(c.UserContext(), actorOf(c), f)
	if err != nil {
		return lifecycleError(c, err)
	}
	return utils.SuccessResponse(c, apps, fiber.StatusOK)
}

// Get handles GET /api/applications/:id
// @Summary Get an application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} models.Application
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.Engine.Get(c.UserContext(), actorOf(c), c.Params("id"))
	if err != nil {
		return lifecycleError(c, err)
	}
	c.Set(fiber.HeaderETag, `"`+strconv.FormatUint(app.Version, 10)+`"`)
	return utils.SuccessResponse(c, app, fiber.StatusOK)
}

// Actions handles GET /api/applications/:id/actions
// @Summary Operations the caller may perform next
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} map[string]interface{}
// @Security CookieAuth
// @Router /applications/{id}/actions [get]
func (h *ApplicationHandler) Actions(c *fiber.Ctx) error {
	actor := actorOf(c)
	app, err := h.Engine.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return lifecycleError(c, err)
	}
	actions := lifecycle.Available(app.Status, actor.Role)
	if actions == nil {
		actions = []lifecycle.Action{}
	}
	return c.JSON(fiber.Map{
		"id":      app.ID,
		"status":  app.Status,
		"version": strconv.FormatUint(app.Version, 10),
		"actions": actions,
	})
}

type approveRequest struct {
	SlotID          string            `json:"slotId"`
	ActualStartDate string            `json:"actualStartDate"`
	ActualEndDate   string            `json:"actualEndDate"`
	Version         *types.FlexUint64 `json:"version"`
}

// Approve handles POST /api/applications/:id/approve
// @Summary Approve a pending application
// @Description Finalizes slot and dates, issues the approval letter and counts the slot
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/approve [post]
func (h *ApplicationHandler) Approve(c *fiber.Ctx) error {
	var body approveRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}
	version, err := expectedVersion(c, body.Version)
	if err != nil {
		return badRequest(c, err.Error())
	}

	in := lifecycle.ApproveInput{SlotID: body.SlotID, ExpectedVersion: version}
	if s := strings.TrimSpace(body.ActualStartDate); s != "" {
		if in.ActualStartDate, err = dates.Parse(s); err != nil {
			return badRequest(c, "Invalid actualStartDate")
		}
	}
	if s := strings.TrimSpace(body.ActualEndDate); s != "" {
		end, err := dates.Parse(s)
		if err != nil {
			return badRequest(c, "Invalid actualEndDate")
		}
		in.ActualEndDate = &end
	}

	app, err := h.Engine.Approve(c.UserContext(), actorOf(c), c.Params("id"), in)
	return h.mutated(c, fiber.StatusOK, app, err)
}

type reasonRequest struct {
	Reason  string            `json:"reason"`
	Version *types.FlexUint64 `json:"version"`
}

func (h *ApplicationHandler) reasonInput(c *fiber.Ctx) (lifecycle.ReasonInput, error) {
	var body reasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return lifecycle.ReasonInput{}, err
		}
	}
	version, err := expectedVersion(c, body.Version)
	if err != nil {
		return lifecycle.ReasonInput{}, err
	}
	return lifecycle.ReasonInput{Reason: body.Reason, ExpectedVersion: version}, nil
}

// Reject handles POST /api/applications/:id/reject
// @Summary Reject a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/reject [post]
func (h *ApplicationHandler) Reject(c *fiber.Ctx) error {
	in, err := h.reasonInput(c)
	if err != nil {
		return badRequest(c, "Invalid input")
	}
	app, err := h.Engine.Reject(c.UserContext(), actorOf(c), c.Params("id"), in)
	return h.mutated(c, fiber.StatusOK, app, err)
}

// RejectPayment handles POST /api/applications/:id/payment/reject
// @Summary Reject a submitted payment receipt
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/payment/reject [post]
func (h *ApplicationHandler) RejectPayment(c *fiber.Ctx) error {
	in, err := h.reasonInput(c)
	if err != nil {
		return badRequest(c, "Invalid input")
	}
	app, err := h.Engine.RejectPayment(c.UserContext(), actorOf(c), c.Params("id"), in)
	return h.mutated(c, fiber.StatusOK, app, err)
}

// Terminate handles POST /api/applications/:id/terminate
// @Summary Terminate an internship
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/terminate [post]
func (h *ApplicationHandler) Terminate(c *fiber.Ctx) error {
	in, err := h.reasonInput(c)
	if err != nil {
		return badRequest(c, "Invalid input")
	}
	app, err := h.Engine.Terminate(c.UserContext(), actorOf(c), c.Params("id"), in)
	return h.mutated(c, fiber.StatusOK, app, err)
}

// RejectConfirmation handles POST /api/applications/:id/confirmation/reject
// @Summary Send an application back to approved
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/confirmation/reject [post]
func (h *ApplicationHandler) RejectConfirmation(c *fiber.Ctx) error {
	in, err := h.reasonInput(c)
	if err != nil {
		return badRequest(c, "Invalid input")
	}
	app, err := h.Engine.RejectConfirmation(c.UserContext(), actorOf(c), c.Params("id"), in)
	return h.mutated(c, fiber.StatusOK, app, err)
}

// VerifyPayment handles POST /api/applications/:id/payment/verify
// @Summary Verify a submitted payment receipt
// @Tags Payments
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/payment/verify [post]
func (h *ApplicationHandler) VerifyPayment(c *fiber.Ctx) error {
	in, err := h.reasonInput(c)
	if err != nil {
		return badRequest(c, "Invalid input")
	}
	app, err := h.Engine.VerifyPayment(c.UserContext(), actorOf(c), c.Params("id"), in.ExpectedVersion)
	return h.mutated(c, fiber.StatusOK, app, err)
}

// MarkCompleted handles POST /api/applications/:id/complete
// @Summary Mark an internship completed
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/complete [post]
func (h *ApplicationHandler) MarkCompleted(c *fiber.Ctx) error {
	in, err := h.reasonInput(c)
	if err != nil {
		return badRequest(c, "Invalid input")
	}
	app, err := h.Engine.MarkCompleted(c.UserContext(), actorOf(c), c.Params("id"), in.ExpectedVersion)
	return h.mutated(c, fiber.StatusOK, app, err)
}

type paymentRequest struct {
	ReceiptNumber string            `json:"receiptNumber" form:"receiptNumber"`
	Version       *types.FlexUint64 `json:"version" form:"-"`
}

// SubmitPayment handles POST /api/applications/:id/payment
// @Summary Submit a payment receipt
// @Description Receipt number with an optional receipt file (multipart field receipt)
// @Tags Payments
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/payment [post]
func (h *ApplicationHandler) SubmitPayment(c *fiber.Ctx) error {
	var body paymentRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}
	version, err := expectedVersion(c, body.Version)
	if err != nil {
		return badRequest(c, err.Error())
	}
	receipt, err := formFile(c, "receipt")
	if err != nil {
		return badRequest(c, err.Error())
	}

	app, err := h.Engine.SubmitPayment(c.UserContext(), actorOf(c), c.Params("id"), lifecycle.PaymentInput{
		ReceiptNumber:   body.ReceiptNumber,
		Receipt:         receipt,
		ExpectedVersion: version,
	})
	return h.mutated(c, fiber.StatusOK, app, err)
}

type postingRequest struct {
	Period  string            `json:"period" form:"period"`
	Plant   string            `json:"plant" form:"plant"`
	Mode    string            `json:"mode" form:"mode"`
	Version *types.FlexUint64 `json:"version" form:"-"`
}

// IssuePostingLetter handles POST /api/applications/:id/posting-letters
// @Summary Issue a posting letter
// @Description mode=auto renders the letter, mode=manual requires a multipart field file
// @Tags Documents
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/posting-letters [post]
func (h *ApplicationHandler) IssuePostingLetter(c *fiber.Ctx) error {
	var body postingRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}
	version, err := expectedVersion(c, body.Version)
	if err != nil {
		return badRequest(c, err.Error())
	}
	file, err := formFile(c, "file")
	if err != nil {
		return badRequest(c, err.Error())
	}
	mode := lifecycle.PostingMode(body.Mode)
	if mode == "" {
		mode = lifecycle.PostingAuto
		if file != nil {
			mode = lifecycle.PostingManual
		}
	}

	app, err := h.Engine.IssuePostingLetter(c.UserContext(), actorOf(c), c.Params("id"), lifecycle.PostingLetterInput{
		Period:          body.Period,
		Plant:           body.Plant,
		Mode:            mode,
		File:            file,
		ExpectedVersion: version,
	})
	return h.mutated(c, fiber.StatusOK, app, err)
}

type confirmationRequest struct {
	FinalConfirmationNumber string            `json:"finalConfirmationNumber"`
	Version                 *types.FlexUint64 `json:"version"`
}

// SubmitConfirmation handles POST /api/applications/:id/confirmation
// @Summary Submit the final confirmation number
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/confirmation [post]
func (h *ApplicationHandler) SubmitConfirmation(c *fiber.Ctx) error {
	var body confirmationRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}
	version, err := expectedVersion(c, body.Version)
	if err != nil {
		return badRequest(c, err.Error())
	}
	app, err := h.Engine.SubmitConfirmation(c.UserContext(), actorOf(c), c.Params("id"), lifecycle.ConfirmationInput{
		FinalConfirmationNumber: body.FinalConfirmationNumber,
		ExpectedVersion:         version,
	})
	return h.mutated(c, fiber.StatusOK, app, err)
}

// UploadCoverLetter handles POST /api/applications/:id/cover-letter
// @Summary Attach a cover letter
// @Description Multipart field coverLetter; a cover letter cannot be replaced
// @Tags Documents
// @Accept mpfd
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /applications/{id}/cover-letter [post]
func (h *ApplicationHandler) UploadCoverLetter(c *fiber.Ctx) error {
	version, err := expectedVersion(c, nil)
	if err != nil {
		return badRequest(c, err.Error())
	}
	file, err := formFile(c, "coverLetter")
	if err != nil {
		return badRequest(c, err.Error())
	}
	app, err := h.Engine.UploadCoverLetter(c.UserContext(), actorOf(c), c.Params("id"), lifecycle.CoverLetterInput{
		File:            file,
		ExpectedVersion: version,
	})
	return h.mutated(c, fiber.StatusOK, app, err)
}
