// Package telemetry buffers and ships structured usage events describing
// engine activity (execution/node/checkpoint lifecycle), strictly separate
// from the emit package's operational event stream: telemetry failures are
// always swallowed and never affect workflow correctness.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Event is one structured telemetry record, written as a single line of
// newline-delimited JSON.
type Event struct {
	EventID     string                 `json:"eventId"`
	Timestamp   time.Time              `json:"timestamp"`
	EventType   string                 `json:"eventType"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	SessionID   string                 `json:"sessionId,omitempty"`
	ExecutionID string                 `json:"executionId,omitempty"`
}

// Collector is a buffered telemetry sink: {batchSize, flushIntervalMs,
// localLogPath}. Track() is safe for concurrent use from multiple
// executions; a write never blocks on disk I/O for longer than one flush.
type Collector struct {
	mu            sync.Mutex
	buf           []Event
	batchSize     int
	localLogPath  string
	anonymousID   string
	enabled       bool
	cronSched     *cron.Cron
	cronEntryID   cron.EntryID
	shutdownOnce  sync.Once
	closed        bool
}

// Option configures a Collector at construction time.
type Option func(*Collector)

// WithBatchSize sets the number of buffered events that trigger an automatic
// flush. Defaults to 20.
func WithBatchSize(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithFlushInterval schedules a periodic flush via a cron expression (e.g.
// "@every 30s") in addition to the batch-size trigger. Daily log rotation
// does not depend on it: each flush writes to the file named for that day.
func WithFlushInterval(cronExpr string) Option {
	return func(c *Collector) {
		entryID, err := c.cronSched.AddFunc(cronExpr, func() {
			_ = c.Flush(context.Background())
		})
		if err == nil {
			c.cronEntryID = entryID
		}
	}
}

// NewCollector builds a Collector rooted at localLogPath, honoring the
// DO_NOT_TRACK / AGENTGRAPH_TELEMETRY / CI opt-out precedence from
// EnabledFromEnv.
func NewCollector(localLogPath string, opts ...Option) (*Collector, error) {
	if err := os.MkdirAll(localLogPath, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create log dir: %w", err)
	}

	anonymousID, err := loadOrCreateAnonymousID(localLogPath)
	if err != nil {
		return nil, fmt.Errorf("telemetry: anonymous id: %w", err)
	}

	c := &Collector{
		batchSize:    20,
		localLogPath: localLogPath,
		anonymousID:  anonymousID,
		enabled:      EnabledFromEnv(os.Getenv),
		cronSched:    cron.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cronSched.Start()
	return c, nil
}

// AnonymousID returns the machine-stable identifier attached to every event.
func (c *Collector) AnonymousID() string {
	return c.anonymousID
}

// Track appends one event to the buffer, enriching it with an eventId,
// timestamp, and anonymousId, and flushes automatically once batchSize is
// reached. A no-op, by design, when telemetry is disabled or the collector
// has been shut down.
func (c *Collector) Track(eventType string, properties map[string]interface{}, sessionID, executionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.closed {
		return
	}

	enriched := make(map[string]interface{}, len(properties)+1)
	for k, v := range properties {
		enriched[k] = v
	}
	enriched["anonymousId"] = c.anonymousID

	c.buf = append(c.buf, Event{
		EventID:     uuid.NewString(),
		Timestamp:   time.Now(),
		EventType:   eventType,
		Properties:  enriched,
		SessionID:   sessionID,
		ExecutionID: executionID,
	})

	if len(c.buf) >= c.batchSize {
		c.flushLocked()
	}
}

// Flush writes every buffered event to today's telemetry-YYYY-MM-DD.jsonl
// file and clears the buffer. Safe to call with an empty buffer.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Collector) flushLocked() error {
	if len(c.buf) == 0 {
		return nil
	}

	path := filepath.Join(c.localLogPath, fmt.Sprintf("telemetry-%s.jsonl", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("telemetry: open log file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, event := range c.buf {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("telemetry: encode event: %w", err)
		}
	}
	c.buf = c.buf[:0]
	return nil
}

// Shutdown drains any buffered events and disables further Track calls.
// Idempotent: calling it more than once is safe and only the first call
// does work.
func (c *Collector) Shutdown(ctx context.Context) error {
	var err error
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		err = c.flushLocked()
		c.closed = true
		c.mu.Unlock()
		c.cronSched.Stop()
	})
	return err
}

// EnabledFromEnv resolves the opt-out precedence from spec §6:
// DO_NOT_TRACK=1 always wins; AGENTGRAPH_TELEMETRY=0/1 is next; CI=true
// defaults off in the absence of an explicit AGENTGRAPH_TELEMETRY value;
// otherwise telemetry is enabled.
func EnabledFromEnv(getenv func(string) string) bool {
	if getenv("DO_NOT_TRACK") == "1" {
		return false
	}
	switch getenv("AGENTGRAPH_TELEMETRY") {
	case "0":
		return false
	case "1":
		return true
	}
	if getenv("CI") == "true" {
		return false
	}
	return true
}

func loadOrCreateAnonymousID(dir string) (string, error) {
	path := filepath.Join(dir, ".anonymous_id")
	data, err := os.ReadFile(path)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}

	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id), 0o644); err != nil {
		return "", err
	}
	return id, nil
}
