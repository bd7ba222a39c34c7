// Package botmonitor acumula estadisticas operativas del bot y un
// historial acotado de eventos recientes para /ping, /estado y la API
// de monitoreo.
package botmonitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Event is one recorded pipeline or lifecycle happening.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
}

// Stats is a point-in-time snapshot of the counters.
type Stats struct {
	MessagesProcessed int64     `json:"messages_processed"`
	RepliesSent       int64     `json:"replies_sent"`
	NlpRequests       int64     `json:"nlp_requests"`
	Reconnections     int64     `json:"reconnections"`
	Errors            int64     `json:"errors"`
	LastHeartbeat     time.Time `json:"last_heartbeat"`
	StartedAt         time.Time `json:"started_at"`
	Uptime            string    `json:"uptime"`
}

const defaultHistorySize = 256

// Monitor keeps the counters. One instance is created at startup and
// injected everywhere; no package-level state.
type Monitor struct {
	messagesProcessed atomic.Int64
	repliesSent       atomic.Int64
	nlpRequests       atomic.Int64
	reconnections     atomic.Int64
	errors            atomic.Int64
	lastHeartbeat     atomic.Int64 // unix nanos

	startedAt time.Time

	mu      sync.Mutex
	history []Event
	next    int
	full    bool
}

func New() *Monitor {
	m := &Monitor{
		startedAt: time.Now(),
		history:   make([]Event, defaultHistorySize),
	}
	m.lastHeartbeat.Store(m.startedAt.UnixNano())
	return m
}

func (m *Monitor) MessageProcessed() { m.messagesProcessed.Add(1) }
func (m *Monitor) ReplySent()        { m.repliesSent.Add(1) }
func (m *Monitor) NlpRequest()       { m.nlpRequests.Add(1) }
func (m *Monitor) Reconnection()     { m.reconnections.Add(1) }
func (m *Monitor) Error()            { m.errors.Add(1) }

// Heartbeat marks the bot alive right now.
func (m *Monitor) Heartbeat() {
	m.lastHeartbeat.Store(time.Now().UnixNano())
}

// LastHeartbeat returns the time of the most recent heartbeat.
func (m *Monitor) LastHeartbeat() time.Time {
	return time.Unix(0, m.lastHeartbeat.Load())
}

// Record appends an event to the bounded history.
func (m *Monitor) Record(stage, status, detail string) {
	evt := Event{
		Timestamp: time.Now(),
		TraceID:   uuid.NewString(),
		Stage:     stage,
		Status:    status,
		Detail:    detail,
	}
	m.mu.Lock()
	m.history[m.next] = evt
	m.next = (m.next + 1) % len(m.history)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()
}

// RecentEvents returns the history oldest-first.
func (m *Monitor) RecentEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		out := make([]Event, m.next)
		copy(out, m.history[:m.next])
		return out
	}
	out := make([]Event, 0, len(m.history))
	out = append(out, m.history[m.next:]...)
	out = append(out, m.history[:m.next]...)
	return out
}

// EventByTrace looks up one event in the history by its trace ID.
func (m *Monitor) EventByTrace(traceID string) (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, evt := range m.history {
		if evt.TraceID != "" && evt.TraceID == traceID {
			return evt, true
		}
	}
	return Event{}, false
}

// Snapshot returns the current counter values.
func (m *Monitor) Snapshot() Stats {
	return Stats{
		MessagesProcessed: m.messagesProcessed.Load(),
		RepliesSent:       m.repliesSent.Load(),
		NlpRequests:       m.nlpRequests.Load(),
		Reconnections:     m.reconnections.Load(),
		Errors:            m.errors.Load(),
		LastHeartbeat:     m.LastHeartbeat(),
		StartedAt:         m.startedAt,
		Uptime:            humanize.Time(m.startedAt),
	}
}
