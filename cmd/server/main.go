// main.go
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

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/database"
	"github.com/steelsid0609/training-rcf/internal/feed"
	"github.com/steelsid0609/training-rcf/internal/filestore"
	"github.com/steelsid0609/training-rcf/internal/handlers"
	"github.com/steelsid0609/training-rcf/internal/letters"
	"github.com/steelsid0609/training-rcf/internal/lifecycle"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"github.com/steelsid0609/training-rcf/internal/services"
	"gorm.io/gorm"

	_ "github.com/steelsid0609/training-rcf/docs/api" // Swagger docs
)

// @title Training RCF API
// @version 1.0.0
// @description Internship application lifecycle service
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/steelsid0609/training-rcf

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logrus.NewEntry(logging.New(cfg.LogLevel, cfg.LogFormat)).WithField("service", "training-rcf")

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	files, err := filestore.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to create file store")
	}
	head := letters.Letterhead{
		OrgName:    cfg.LetterOrgName,
		OrgAddress: cfg.LetterOrgAddress,
		Signatory:  cfg.LetterSignatory,
		RefPrefix:  cfg.LetterRefPrefix,
	}

	renderer := letters.NewRenderer(head)
	if cfg.LetterFont != "" {
		font, err := letters.LoadFont(cfg.LetterFont, cfg.LetterFontBold)
		if err != nil {
			log.WithError(err).Fatal("failed to load letter font")
		}
		renderer.WithFont(font)
	}

	hub := feed.NewHub(64, log)
	engine := lifecycle.New(db, files, renderer,
		lifecycle.WithLogger(log),
		lifecycle.WithPublisher(hub),
		lifecycle.WithLetterhead(head),
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		BodyLimit:    handlers.MaxUploadSize + 1<<20,
	})

	// Event streams are long lived and must not be buffered or counted as requests
	streaming := func(c *fiber.Ctx) bool {
		return strings.HasSuffix(c.Path(), "/stream")
	}

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New(compress.Config{Next: streaming}))
	app.Use(limiter.New(limiter.Config{
		Next:       streaming,
		Max:        cfg.RateLimitMax,
		Expiration: time.Minute,
	}))

	// Prometheus metrics
	prometheus := fiberprometheus.New("training_rcf")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	handlers.Register(app.Group("/api"), handlers.Deps{
		Cfg:      cfg,
		DB:       db,
		Engine:   engine,
		Hub:      hub,
		Sessions: services.NewAuthorizer(cfg, log),
		Log:      log,
	})

	// 404 handler
	app.Use(handlers.NotFound)

	audit := startSlotAudit(cfg.SlotAuditSchedule, db, log)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("gracefully shutting down")
		if audit != nil {
			<-audit.Stop().Done()
		}
		hub.Close()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// Start server
	log.WithField("port", cfg.Port).Info("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	log.Info("server stopped")
}

// startSlotAudit schedules the slot count reconcile. An empty schedule disables it.
func startSlotAudit(schedule string, db *gorm.DB, log *logrus.Entry) *cron.Cron {
	if schedule == "" {
		return nil
	}
	log = log.WithField("job", "slot-audit")

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		drift, err := services.ReconcileSlotCounts(ctx, db, true, log)
		if err != nil {
			log.WithError(err).Error("slot audit failed")
			return
		}
		log.WithField("drifted", len(drift)).Info("slot audit finished")
	})
	if err != nil {
		log.WithError(err).Fatal("invalid SLOT_AUDIT_SCHEDULE")
	}
	c.Start()
	log.WithField("schedule", schedule).Info("slot audit scheduled")
	return c
}
