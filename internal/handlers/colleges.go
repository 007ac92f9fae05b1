package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/services"
	"github.com/steelsid0609/training-rcf/internal/utils"
	"gorm.io/gorm"
)

// CollegeHandler handles master and temp college routes
type CollegeHandler struct {
	DB *gorm.DB
}

type collegeRequest = otherCollegeRequest

// List handles GET /api/colleges
// @Summary List master colleges
// @Tags Colleges
// @Produce json
// @Success 200 {array} models.College
// @Security CookieAuth
// @Router /colleges [get]
func (h *CollegeHandler) List(c *fiber.Ctx) error {
	colleges, err := services.ListColleges(c.UserContext(), h.DB)
	if err != nil {
		return serviceError(c, err, "colleges.list")
	}
	return utils.SuccessResponse(c, colleges, fiber.StatusOK)
}

// Create handles POST /api/colleges
// @Summary Create a master college
// @Description faculties accepts a single object or an array
// @Tags Colleges
// @Accept json
// @Produce json
// @Success 201 {object} models.College
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /colleges [post]
func (h *CollegeHandler) Create(c *fiber.Ctx) error {
	var body collegeRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}
	college, err := services.CreateCollege(c.UserContext(), h.DB, *body.details())
	if err != nil {
		return serviceError(c, err, "colleges.create")
	}
	return utils.SuccessResponse(c, college, fiber.StatusCreated)
}

// ListTemp handles GET /api/colleges/temp
// @Summary List submitted colleges
// @Tags Colleges
// @Produce json
// @Param status query string false "pending (default) or resolved"
// @Success 200 {array} models.TempCollege
// @Security CookieAuth
// @Router /colleges/temp [get]
func (h *CollegeHandler) ListTemp(c *fiber.Ctx) error {
	status := models.TempCollegeStatus(c.Query("status", string(models.TempCollegePending)))
	temps, err := services.ListTempColleges(c.UserContext(), h.DB, status)
	if err != nil {
		return serviceError(c, err, "colleges.listTemp")
	}
	return utils.SuccessResponse(c, temps, fiber.StatusOK)
}

// CreateTemp handles POST /api/colleges/temp
// @Summary Submit a college for review
// @Tags Colleges
// @Accept json
// @Produce json
// @Success 201 {object} models.TempCollege
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /colleges/temp [post]
func (h *CollegeHandler) CreateTemp(c *fiber.Ctx) error {
	var body collegeRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid input")
	}
	temp, err := services.CreateTempCollege(c.UserContext(), h.DB, *body.details(), actorOf(c).Label())
	if err != nil {
		return serviceError(c, err, "colleges.createTemp")
	}
	return utils.SuccessResponse(c, temp, fiber.StatusCreated)
}

// Promote handles POST /api/colleges/temp/:id/promote
// @Summary Promote a submitted college to the master list
// @Tags Colleges
// @Produce json
// @Param id path string true "Temp college ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /colleges/temp/{id}/promote [post]
func (h *CollegeHandler) Promote(c *fiber.Ctx) error {
	college, relinked, err := services.PromoteTempCollege(c.UserContext(), h.DB, c.Params("id"))
	if err != nil {
		return serviceError(c, err, "colleges.promote")
	}
	return utils.SuccessResponse(c, fiber.Map{"college": college, "relinked": relinked}, fiber.StatusOK)
}

type mergeRequest struct {
	MasterID string `json:"masterId"`
}

// Merge handles POST /api/colleges/temp/:id/merge
// @Summary Merge a submitted college into a master record
// @Description Fills empty master fields, appends new faculties and relinks waiting applications
// @Tags Colleges
// @Accept json
// @Produce json
// @Param id path string true "Temp college ID"
// @Success 200 {object} services.MergeResult
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /colleges/temp/{id}/merge [post]
func (h *CollegeHandler) Merge(c *fiber.Ctx) error {
	var body mergeRequest
	if err := c.BodyParser(&body); err != nil || body.MasterID == "" {
		return badRequest(c, "masterId is required")
	}
	result, err := services.MergeTempCollege(c.UserContext(), h.DB, c.Params("id"), body.MasterID)
	if err != nil {
		return serviceError(c, err, "colleges.merge")
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}
