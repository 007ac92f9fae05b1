package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	hub := NewHub(4, nil)
	ch, cancel := hub.Subscribe(nil)
	defer cancel()

	hub.Publish(Event{Type: "approve", ApplicationID: "a1"})

	select {
	case ev := <-ch:
		assert.Equal(t, "a1", ev.ApplicationID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestFilter(t *testing.T) {
	hub := NewHub(4, nil)
	ch, cancel := hub.Subscribe(ForStudent("s1"))
	defer cancel()

	hub.Publish(Event{ApplicationID: "other", StudentID: "s2"})
	hub.Publish(Event{ApplicationID: "mine", StudentID: "s1"})

	ev := <-ch
	assert.Equal(t, "mine", ev.ApplicationID)
	assert.Len(t, ch, 0)
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	hub := NewHub(1, nil)
	ch, cancel := hub.Subscribe(nil)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(Event{ApplicationID: "a"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, ch, 1)
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub(1, nil)
	ch, cancel := hub.Subscribe(nil)
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers())
}

func TestClose(t *testing.T) {
	hub := NewHub(1, nil)
	ch, _ := hub.Subscribe(nil)

	hub.Close()
	_, open := <-ch
	assert.False(t, open)

	// publishing and subscribing after close are harmless
	hub.Publish(Event{ApplicationID: "late"})
	late, cancel := hub.Subscribe(nil)
	defer cancel()
	_, open = <-late
	assert.False(t, open)
}

func TestConcurrentPublish(t *testing.T) {
	hub := NewHub(100, nil)
	ch, cancel := hub.Subscribe(nil)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				hub.Publish(Event{ApplicationID: "a"})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ch, 100)
}
