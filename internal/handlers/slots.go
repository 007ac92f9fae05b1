package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/dates"
	"github.com/steelsid0609/training-rcf/internal/services"
	"github.com/steelsid0609/training-rcf/internal/utils"
	"gorm.io/gorm"
)

// SlotHandler handles training slot routes
type SlotHandler struct {
	DB  *gorm.DB
	Log *logrus.Entry
}

// List handles GET /api/slots
// @Summary List training slots
// @Description Students only see active slots; staff may pass all=true
// @Tags Slots
// @Produce json
// @Param all query bool false "Include inactive slots (staff)"
// @Success 200 {array} models.TrainingSlot
// @Security CookieAuth
// @Router /slots [get]
func (h *SlotHandler) List(c *fiber.Ctx) error {
	activeOnly := !(c.QueryBool("all", false) && actorOf(c).IsStaff())
	slots, err := services.ListSlots(c.UserContext(), h.DB, activeOnly)
	if err != nil {
		return serviceError(c, err, "slots.list")
	}
	return utils.SuccessResponse(c, slots, fiber.StatusOK)
}

// Get handles GET /api/slots/:id
// @Summary Get a training slot
// @Tags Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} models.TrainingSlot
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /slots/{id} [get]
func (h *SlotHandler) Get(c *fiber.Ctx) error {
	slot, err := services.GetSlot(c.UserContext(), h.DB, c.Params("id"))
	if err != nil {
		return serviceError(c, err, "slots.get")
	}
	return utils.SuccessResponse(c, slot, fiber.StatusOK)
}

// Create handles POST /api/slots
// @Summary Create a training slot
// @Tags Slots
// @Accept json
// @Produce json
// @Param slot body services.SlotInput true "Slot"
// @Success 201 {object} models.TrainingSlot
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /slots [post]
func (h *SlotHandler) Create(c *fiber.Ctx) error {
	var in services.SlotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid input")
	}
	slot, err := services.CreateSlot(c.UserContext(), h.DB, in)
	if err != nil {
		return serviceError(c, err, "slots.create")
	}
	return utils.SuccessResponse(c, slot, fiber.StatusCreated)
}

// Update handles PUT /api/slots/:id
// @Summary Update a training slot
// @Description The application count is maintained by approvals and cannot be set here
// @Tags Slots
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param slot body services.SlotInput true "Slot"
// @Success 200 {object} models.TrainingSlot
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /slots/{id} [put]
func (h *SlotHandler) Update(c *fiber.Ctx) error {
	var in services.SlotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid input")
	}
	slot, err := services.UpdateSlot(c.UserContext(), h.DB, c.Params("id"), in)
	if err != nil {
		return serviceError(c, err, "slots.update")
	}
	return utils.SuccessResponse(c, slot, fiber.StatusOK)
}

// Delete handles DELETE /api/slots/:id
// @Summary Delete an unused training slot
// @Tags Slots
// @Param id path string true "Slot ID"
// @Success 204
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /slots/{id} [delete]
func (h *SlotHandler) Delete(c *fiber.Ctx) error {
	if err := services.DeleteSlot(c.UserContext(), h.DB, c.Params("id")); err != nil {
		return serviceError(c, err, "slots.delete")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconcile handles POST /api/slots/reconcile
// @Summary Audit slot application counts
// @Description Compares recorded counts with approved applications; apply=true raises low counts
// @Tags Slots
// @Produce json
// @Param apply query bool false "Correct drift"
// @Success 200 {array} services.SlotDrift
// @Security CookieAuth
// @Router /slots/reconcile [post]
func (h *SlotHandler) Reconcile(c *fiber.Ctx) error {
	drift, err := services.ReconcileSlotCounts(c.UserContext(), h.DB, c.QueryBool("apply", false), h.Log)
	if err != nil {
		return serviceError(c, err, "slots.reconcile")
	}
	if drift == nil {
		drift = []services.SlotDrift{}
	}
	return utils.SuccessResponse(c, drift, fiber.StatusOK)
}

// EndDate handles GET /api/slots/:id/end-date
// @Summary Preview an internship end date
// @Description Derives the end date from the slot start (or start) plus value and type
// @Tags Slots
// @Produce json
// @Param id path string true "Slot ID"
// @Param start query string false "Start date YYYY-MM-DD, defaults to the slot start"
// @Param value query int true "Duration value"
// @Param type query string true "days, weeks or months"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /slots/{id}/end-date [get]
func (h *SlotHandler) EndDate(c *fiber.Ctx) error {
	slot, err := services.GetSlot(c.UserContext(), h.DB, c.Params("id"))
	if err != nil {
		return serviceError(c, err, "slots.endDate")
	}

	start := slot.StartDate.Time()
	if s := c.Query("start"); s != "" {
		if start, err = dates.Parse(s); err != nil {
			return badRequest(c, err.Error())
		}
	}
	unit, err := dates.ParseDurationType(c.Query("type"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	value := c.QueryInt("value", 0)
	end, err := dates.DeriveEndDate(start, value, unit)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(fiber.Map{
		"slotId":    slot.ID,
		"startDate": dates.Format(start),
		"endDate":   dates.Format(end),
		"duration":  dates.Describe(value, unit),
	})
}
