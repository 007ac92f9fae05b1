package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/feed"
	"github.com/valyala/fasthttp"
)

// DefaultHeartbeat is the comment interval that keeps idle streams open
const DefaultHeartbeat = 15 * time.Second

// FeedHandler streams committed application changes as server-sent events
type FeedHandler struct {
	Hub       *feed.Hub
	Heartbeat time.Duration
	Log       *logrus.Entry
}

// Stream handles GET /api/applications/stream
// @Summary Stream application changes
// @Description Server-sent events; students only receive their own applications
// @Tags Events
// @Produce text/event-stream
// @Success 200 {object} feed.Event
// @Security CookieAuth
// @Router /applications/stream [get]
func (h *FeedHandler) Stream(c *fiber.Ctx) error {
	actor := actorOf(c)
	var filter feed.Filter
	if !actor.IsStaff() {
		filter = feed.ForStudent(actor.UID)
	}
	events, cancel := h.Hub.Subscribe(filter)

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	log := h.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithFields(logrus.Fields{"uid": actor.UID, "role": actor.Role})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, "retry: 3000\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		log.Debug("event stream opened")

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					log.Debug("event stream closed by hub")
					return
				}
				data, err := sonic.Marshal(ev)
				if err != nil {
					log.WithError(err).Error("failed to encode event")
					continue
				}
				fmt.Fprintf(w, "id: %s:%d\nevent: %s\ndata: %s\n\n", ev.ApplicationID, ev.Version, ev.Type, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				// client went away
				return
			}
		}
	}))
	return nil
}
