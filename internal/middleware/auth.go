package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/steelsid0609/training-rcf/internal/lifecycle"
	"github.com/steelsid0609/training-rcf/internal/models"
	"github.com/steelsid0609/training-rcf/internal/services"
	"github.com/steelsid0609/training-rcf/internal/types"
)

// SessionCookie is the Authorizer session cookie name
const SessionCookie = "cookie_session"

const actorKey = "actor"

// SessionValidator checks a session cookie against a set of roles
type SessionValidator interface {
	ValidateSession(cookie string, roles []string) (*services.Session, error)
}

// initializer is implemented by validators that need the public host before first use
type initializer interface {
	Init(requestProtocol, requestHost string) error
}

// AuthAny admits any authenticated student, supervisor or admin
func AuthAny(v SessionValidator) fiber.Handler {
	return Auth(v, models.RoleStudent, models.RoleSupervisor, models.RoleAdmin)
}

// AuthStaff admits supervisors and admins
func AuthStaff(v SessionValidator) fiber.Handler {
	return Auth(v, models.RoleSupervisor, models.RoleAdmin)
}

// AuthAdmin admits admins only
func AuthAdmin(v SessionValidator) fiber.Handler {
	return Auth(v, models.RoleAdmin)
}

// Auth validates the session and stores the caller as a lifecycle.Actor.
// A user holding several allowed roles acts with the most privileged one.
func Auth(v SessionValidator, allowed ...models.Role) fiber.Handler {
	roles := make([]string, len(allowed))
	for i, r := range allowed {
		roles[i] = string(r)
	}
	errorType := "authorization." + string(allowed[len(allowed)-1])

	return func(c *fiber.Ctx) error {
		// Get session cookie
		session := c.Cookies(SessionCookie)
		if session == "" {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: fmt.Sprintf("Authorizer cookie %q not found", SessionCookie),
				Type:    errorType,
			}
		}

		if in, ok := v.(initializer); ok {
			if err := in.Init(c.Protocol(), c.Hostname()); err != nil {
				return &types.CustomError{
					Code:    fiber.StatusServiceUnavailable,
					Message: fmt.Sprintf("Authorizer unavailable: %v", err),
					Type:    "authorization.unavailable",
				}
			}
		}

		// Validate session
		s, err := v.ValidateSession(session, roles)
		if err != nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: fmt.Sprintf("Invalid session: %v", err),
				Type:    errorType,
			}
		}

		role, ok := resolveRole(s.Roles, allowed)
		if !ok || s.UID == "" {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Session does not carry a permitted role",
				Type:    errorType,
			}
		}

		c.Locals(actorKey, lifecycle.Actor{UID: s.UID, Email: s.Email, Role: role})
		return c.Next()
	}
}

func resolveRole(held []string, allowed []models.Role) (models.Role, bool) {
	for _, r := range models.Roles {
		if !contains(allowed, r) {
			continue
		}
		for _, h := range held {
			if h == string(r) {
				return r, true
			}
		}
	}
	return "", false
}

func contains(roles []models.Role, r models.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

// ActorFrom returns the caller stored by Auth
func ActorFrom(c *fiber.Ctx) (lifecycle.Actor, bool) {
	a, ok := c.Locals(actorKey).(lifecycle.Actor)
	return a, ok
}
