// Package feed fans committed application changes out to live subscribers.
package feed

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/models"
)

// Event describes one committed change to an application
type Event struct {
	Type          string               `json:"type"`
	ApplicationID string               `json:"applicationId"`
	StudentID     string               `json:"studentId"`
	Status        models.Status        `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	Version       uint64               `json:"version"`
	Actor         string               `json:"actor"`
	At            time.Time            `json:"at"`
}

// Filter selects which events a subscriber receives, nil means all
type Filter func(Event) bool

type subscriber struct {
	ch      chan Event
	filter  Filter
	dropped atomic.Uint64
}

// Hub is an in-process publish/subscribe hub.
// Publish never blocks; a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
	buffer int
	closed bool
	log    *logrus.Entry
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int, log *logrus.Entry) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		subs:   make(map[uint64]*subscriber),
		buffer: buffer,
		log:    log.WithField("component", "feed"),
	}
}

// Publish delivers ev to every matching subscriber
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for id, s := range h.subs {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			n := s.dropped.Add(1)
			h.log.WithFields(logrus.Fields{
				"subscriber":     id,
				"dropped":        n,
				"application_id": ev.ApplicationID,
			}).Warn("feed subscriber is slow, event dropped")
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func closes the channel.
func (h *Hub) Subscribe(filter Filter) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = &subscriber{ch: ch, filter: filter}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.ch)
			}
		})
	}
}

// Subscribers returns the number of live subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber; later publishes are ignored
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		close(s.ch)
		delete(h.subs, id)
	}
}

// ForStudent limits a subscription to one student's applications
func ForStudent(uid string) Filter {
	return func(ev Event) bool {
		return ev.StudentID == uid
	}
}
