package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/steelsid0609/training-rcf/internal/services"
	"github.com/steelsid0609/training-rcf/internal/utils"
	"gorm.io/gorm"
)

// ProfileHandler handles the caller's own user record
type ProfileHandler struct {
	DB *gorm.DB
}

// Get handles GET /api/profile
// @Summary Get the caller's profile
// @Tags Profile
// @Produce json
// @Success 200 {object} models.User
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /profile [get]
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	user, err := services.GetProfile(c.UserContext(), h.DB, actorOf(c).UID)
	if err != nil {
		return serviceError(c, err, "profile.get")
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}

// Save handles PUT /api/profile
// @Summary Create or update the caller's profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param profile body services.ProfileInput true "Profile"
// @Success 200 {object} models.User
// @Security CookieAuth
// @Router /profile [put]
func (h *ProfileHandler) Save(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid input")
	}
	actor := actorOf(c)
	user, err := services.SaveProfile(c.UserContext(), h.DB, actor.UID, actor.Email, actor.Role, in)
	if err != nil {
		return serviceError(c, err, "profile.save")
	}
	return utils.SuccessResponse(c, user, fiber.StatusOK)
}
