// Package events fans session changes and audio cues out to connected
// clients. The browser synthesises the cue tone itself from the frequency
// carried in each cue event.
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"plank/internal/domain"
)

// Event names sent to subscribers.
const (
	NameState = "state"
	NameTick  = "tick"
	NameCue   = "cue"
	NameStop  = "stopped"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// Event is one message for subscribers.
type Event struct {
	Name string
	Data any
}

// Cue is the payload of a cue event.
type Cue struct {
	Pitch       float64 `json:"pitch"`
	FrequencyHz float64 `json:"frequencyHz"`
}

// Hub broadcasts events to subscribers. It implements domain.Tone and
// domain.SessionObserver and never blocks the publisher: a subscriber whose
// queue is full misses the event.
type Hub struct {
	buffer int
	logger *slog.Logger

	mu   sync.Mutex
	subs map[chan Event]struct{} // nil until first use and after Suspend

	dropped atomic.Int64
}

var (
	_ domain.Tone            = (*Hub)(nil)
	_ domain.SessionObserver = (*Hub)(nil)
)

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{buffer: buffer, logger: logger}
}

func (h *Hub) ensureLocked() {
	if h.subs == nil {
		h.subs = make(map[chan Event]struct{})
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	h.ensureLocked()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was
// full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ensureLocked()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Play broadcasts a cue.
func (h *Hub) Play(pitch float64) {
	h.Publish(Event{Name: NameCue, Data: Cue{Pitch: pitch, FrequencyHz: domain.CueFrequency(pitch)}})
}

// OnSessionEvent forwards a session change.
func (h *Hub) OnSessionEvent(e domain.SessionEvent) {
	name := NameState
	switch e.Type {
	case domain.EventTick:
		name = NameTick
	case domain.EventStopped:
		name = NameStop
	}
	h.Publish(Event{Name: name, Data: e})
}

// Suspend disconnects every subscriber. The hub re-opens on next use.
func (h *Hub) Suspend() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		close(ch)
	}
	if n := len(h.subs); n > 0 {
		h.logger.Debug("event hub suspended", "subscribers", n)
	}
	h.subs = nil
}
