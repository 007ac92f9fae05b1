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
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/database"
	"github.com/steelsid0609/training-rcf/internal/logging"
	"github.com/steelsid0609/training-rcf/internal/services"
)

func main() {
	// Load configuration
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Diagnostics go to stderr so stdout stays machine readable
	log := logrus.NewEntry(logging.NewWithOutput(cfg.LogLevel, cfg.LogFormat, os.Stderr))

	db, err := database.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Perform health check
	result := services.HealthCheck(ctx, cfg, db, log)

	// Output result as JSON
	output, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("failed to marshal health check result")
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
}
