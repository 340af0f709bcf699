package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	IdeaCreated         EventType = "IDEA_CREATED"
	IdeaUpdated         EventType = "IDEA_UPDATED"
	IdeaDeleted         EventType = "IDEA_DELETED"
	PositionOpened      EventType = "POSITION_OPENED"
	BuyAdded            EventType = "BUY_ADDED"
	PositionExited      EventType = "POSITION_EXITED"
	PositionPartialExit EventType = "POSITION_PARTIAL_EXIT"
	TelegramSyncStart   EventType = "TELEGRAM_SYNC_START"
	TelegramSyncDone    EventType = "TELEGRAM_SYNC_COMPLETE"
	SparklinesRefreshed EventType = "SPARKLINES_REFRESHED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager handles event emission, logging and subscriber fan-out
type Manager struct {
	mu          sync.RWMutex
	subscribers []chan Event
	log         zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers a channel that receives every emitted event.
// Slow subscribers are skipped rather than blocking emitters.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 64)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes a previously registered channel and closes it.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Emit emits an event
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, drop rather than block.
		}
	}
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	data := map[string]interface{}{
		"error":   err.Error(),
		"context": context,
	}
	m.Emit(ErrorOccurred, module, data)
}
