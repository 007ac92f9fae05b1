// common.go
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

package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/steelsid0609/training-rcf/internal/lifecycle"
	"github.com/steelsid0609/training-rcf/internal/middleware"
	"github.com/steelsid0609/training-rcf/internal/services"
	"github.com/steelsid0609/training-rcf/internal/types"
	"github.com/steelsid0609/training-rcf/internal/utils"
	"github.com/valyala/fasthttp"
)

// MaxUploadSize bounds a single uploaded document
const MaxUploadSize = 10 << 20

// parseList extracts values for key from query parameters,
// supporting both repeated keys and comma-separated values.
func parseList(c *fiber.Ctx, key string) []string {
	seen := make(map[string]struct{})
	var out []string

	args := c.Context().QueryArgs()
	for _, value := range args.PeekMulti(key) {
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// formFile reads an optional uploaded file. A missing field yields nil.
func formFile(c *fiber.Ctx, field string) (*lifecycle.File, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	if fh.Size > MaxUploadSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, MaxUploadSize)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	return &lifecycle.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

// expectedVersion reads the caller's version from If-Match, then the body, then a form field
func expectedVersion(c *fiber.Ctx, body *types.FlexUint64) (*uint64, error) {
	if v, err := types.ParseVersion(c.Get(fiber.HeaderIfMatch)); err != nil || v != nil {
		return v, err
	}
	if body != nil {
		return body.Ptr(), nil
	}
	if isMultipart(c) {
		return types.ParseVersion(c.FormValue("version"))
	}
	return nil, nil
}

func actorOf(c *fiber.Ctx) lifecycle.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func badRequest(c *fiber.Ctx, message string) error {
	return utils.ErrorResponse(c, message, fiber.StatusBadRequest, "validation.input")
}

var kindStatus = map[lifecycle.Kind]int{
	lifecycle.KindValidation:        fiber.StatusBadRequest,
	lifecycle.KindForbidden:         fiber.StatusForbidden,
	lifecycle.KindNotFound:          fiber.StatusNotFound,
	lifecycle.KindInvalidTransition: fiber.StatusConflict,
	lifecycle.KindConflict:          fiber.StatusConflict,
	lifecycle.KindActiveApplication: fiber.StatusConflict,
	lifecycle.KindUpload:            fiber.StatusBadGateway,
	lifecycle.KindStore:             fiber.StatusInternalServerError,
	lifecycle.KindPartial:           fiber.StatusInternalServerError,
}

// lifecycleError renders an engine error in the standard envelope
func lifecycleError(c *fiber.Ctx, err error) error {
	var le *lifecycle.Error
	if !errors.As(err, &le) {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "lifecycle.store")
	}
	if le.Kind == lifecycle.KindConflict {
		return utils.VersionErrorResponse(c, "E_VERSION - "+le.Error())
	}
	status, ok := kindStatus[le.Kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	return utils.FieldErrorResponse(c, le.Error(), status, "lifecycle."+string(le.Kind), le.Fields)
}

// serviceError renders a directory service error in the standard envelope
func serviceError(c *fiber.Ctx, err error, errorType string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, services.ErrInUse), errors.Is(err, services.ErrResolved):
		status = fiber.StatusConflict
	}
	return utils.ErrorResponse(c, err.Error(), status, errorType)
}

// ErrorHandler handles errors that escape a handler
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var ce *types.CustomError
	var fe *fiber.Error
	var le *lifecycle.Error
	switch {
	case errors.As(err, &ce):
		code, message, errorType = ce.Code, ce.Message, ce.Type
	case errors.As(err, &le):
		return lifecycleError(c, le)
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}

// NotFound is the catch-all route handler
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
