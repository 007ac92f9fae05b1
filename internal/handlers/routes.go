package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/feed"
	"github.com/steelsid0609/training-rcf/internal/lifecycle"
	"github.com/steelsid0609/training-rcf/internal/middleware"
	"gorm.io/gorm"
)

// Deps are the collaborators the API routes need
type Deps struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Engine    *lifecycle.Engine
	Hub       *feed.Hub
	Sessions  middleware.SessionValidator
	Log       *logrus.Entry
	Heartbeat time.Duration
}

// Register mounts the API on router, normally the /api group.
// Lifecycle operations admit any signed in role; the engine enforces per-operation roles.
func Register(router fiber.Router, d Deps) {
	router.Use(middleware.VersionMiddleware())

	anyone := middleware.AuthAny(d.Sessions)
	staff := middleware.AuthStaff(d.Sessions)
	admin := middleware.AuthAdmin(d.Sessions)

	health := &HealthHandler{Cfg: d.Cfg, DB: d.DB, Log: d.Log}
	router.Get("/health", health.Check)

	profile := &ProfileHandler{DB: d.DB}
	router.Get("/profile", anyone, profile.Get)
	router.Put("/profile", anyone, profile.Save)

	apps := &ApplicationHandler{Engine: d.Engine}
	a := router.Group("/applications", anyone)
	a.Get("/", apps.List)
	a.Post("/", apps.Submit)
	events := &FeedHandler{Hub: d.Hub, Heartbeat: d.Heartbeat, Log: d.Log}
	a.Get("/stream", events.Stream)
	a.Get("/:id", apps.Get)
	a.Get("/:id/actions", apps.Actions)
	a.Post("/:id/approve", apps.Approve)
	a.Post("/:id/reject", apps.Reject)
	a.Post("/:id/payment", apps.SubmitPayment)
	a.Post("/:id/payment/verify", apps.VerifyPayment)
	a.Post("/:id/payment/reject", apps.RejectPayment)
	a.Post("/:id/posting-letters", apps.IssuePostingLetter)
	a.Post("/:id/complete", apps.MarkCompleted)
	a.Post("/:id/terminate", apps.Terminate)
	a.Post("/:id/confirmation", apps.SubmitConfirmation)
	a.Post("/:id/confirmation/reject", apps.RejectConfirmation)
	a.Post("/:id/cover-letter", apps.UploadCoverLetter)

	slots := &SlotHandler{DB: d.DB, Log: d.Log}
	router.Get("/slots", anyone, slots.List)
	router.Post("/slots", admin, slots.Create)
	router.Post("/slots/reconcile", admin, slots.Reconcile)
	router.Get("/slots/:id", anyone, slots.Get)
	router.Get("/slots/:id/end-date", anyone, slots.EndDate)
	router.Put("/slots/:id", admin, slots.Update)
	router.Delete("/slots/:id", admin, slots.Delete)

	colleges := &CollegeHandler{DB: d.DB}
	router.Get("/colleges", anyone, colleges.List)
	router.Post("/colleges", admin, colleges.Create)
	router.Get("/colleges/temp", staff, colleges.ListTemp)
	router.Post("/colleges/temp", anyone, colleges.CreateTemp)
	router.Post("/colleges/temp/:id/promote", admin, colleges.Promote)
	router.Post("/colleges/temp/:id/merge", admin, colleges.Merge)
}
