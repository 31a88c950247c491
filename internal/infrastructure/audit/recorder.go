// Package audit provides the fire-and-forget activity recorder. Entries are
// buffered on a channel and written by a background worker; a full buffer
// drops the entry and a storage failure is logged and counted, never
// surfaced to the operation being audited.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/houstoncollective/streamadmin/internal/api/metrics"
	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

const (
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second
)

// Recorder implements ports.ActivityLog over a buffered channel.
type Recorder struct {
	entries chan *domain.ActivityEntry
	repo    ports.ActivityRepository
	log     zerolog.Logger
}

// NewRecorder creates a Recorder with the given buffer capacity.
// If buffer <= 0, defaultBuffer is used.
func NewRecorder(repo ports.ActivityRepository, log zerolog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Recorder{
		entries: make(chan *domain.ActivityEntry, buffer),
		repo:    repo,
		log:     log,
	}
}

// Start launches the write loop. It stops when ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) {
	go r.run(ctx)
}

// Record enqueues an entry without blocking. When the buffer is full the
// entry is dropped; auditing never backpressures the primary operation.
func (r *Recorder) Record(entry *domain.ActivityEntry) {
	select {
	case r.entries <- entry:
	default:
		metrics.AuditDroppedTotal.Inc()
		r.log.Warn().Str("action", entry.Action).Msg("activity entry dropped, buffer full")
	}
}

func (r *Recorder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case entry := <-r.entries:
			r.write(entry)
		}
	}
}

// drain flushes whatever is already buffered at shutdown.
func (r *Recorder) drain() {
	for {
		select {
		case entry := <-r.entries:
			r.write(entry)
		default:
			return
		}
	}
}

func (r *Recorder) write(entry *domain.ActivityEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Insert(ctx, entry); err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		r.log.Error().Err(err).Str("action", entry.Action).Msg("activity write failed")
	}
}
