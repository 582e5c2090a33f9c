// Package logsink ships best-effort audit events to the central log service.
// Emission never blocks the caller and failures are swallowed: observability
// must not affect the primary control flow.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lucasfarias/orderflow-backend/pkg/config"
	"github.com/lucasfarias/orderflow-backend/pkg/logger"
)

const defaultBuffer = 64

// Entry is one audit event. Callers set at least "service" and "event".
type Entry map[string]any

// Emitter drains a bounded buffer onto the log service from a single
// background goroutine.
type Emitter struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logg    *logger.Logger
	entries chan Entry
}

// New builds an emitter. An empty URL yields a disabled emitter whose Emit
// is a no-op; callers never need to branch on configuration.
func New(cfg config.LogSinkConfig, url string, logg *logger.Logger) *Emitter {
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Emitter{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logg:    logg,
		entries: make(chan Entry, buffer),
	}
}

// Emit enqueues the entry without blocking. When the buffer is full the
// entry is dropped.
func (e *Emitter) Emit(entry Entry) {
	if e == nil || e.url == "" || entry == nil {
		return
	}
	select {
	case e.entries <- entry:
	default:
		if e.logg != nil {
			e.logg.Debug(context.Background(), "logsink buffer full, entry dropped")
		}
	}
}

// Run drains the buffer until the context is canceled.
func (e *Emitter) Run(ctx context.Context) error {
	if e == nil || e.url == "" {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-e.entries:
			e.deliver(ctx, entry)
		}
	}
}

func (e *Emitter) deliver(ctx context.Context, entry Entry) {
	body, err := json.Marshal(entry)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(ctx, "logsink entry not serializable")
		}
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.url+"/logs", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if e.logg != nil {
			e.logg.Warn(ctx, "logsink delivery failed")
		}
		return
	}
	_ = resp.Body.Close()
}
