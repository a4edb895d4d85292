package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"go.uber.org/zap"
)

const (
	defaultRelayInterval = 5 * time.Second
	defaultRelayBatch    = 100
)

// Outbox is the part of the journal the relay drains.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]event.Event, error)
	MarkPublished(ctx context.Context, at time.Time, seqs ...uint64) error
}

// RelayConfig configures outbox draining.
type RelayConfig struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"5s"`
	BatchSize int           `env:"BATCH_SIZE" envDefault:"100"`
}

// Relay republishes journal events the bus has not acknowledged.
type Relay struct {
	outbox   Outbox
	bus      event.Bus
	logger   *zap.Logger
	interval time.Duration
	batch    int
	clock    func() time.Time
}

// NewRelay builds a relay. Zero config values fall back to defaults.
func NewRelay(outbox Outbox, bus event.Bus, cfg RelayConfig, logger *zap.Logger) (*Relay, error) {
	if outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if bus == nil {
		return nil, errors.New("event bus is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Relay{
		outbox:   outbox,
		bus:      bus,
		logger:   logger,
		interval: cfg.Interval,
		batch:    cfg.BatchSize,
		clock:    time.Now,
	}
	if r.interval <= 0 {
		r.interval = defaultRelayInterval
	}
	if r.batch <= 0 {
		r.batch = defaultRelayBatch
	}
	return r, nil
}

// Run flushes the outbox every interval until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("outbox flush failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush publishes unpublished events oldest first until the outbox is empty
// or a publish fails. It returns how many events were delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	delivered := 0
	for {
		pending, err := r.outbox.ListUnpublished(ctx, r.batch)
		if err != nil {
			return delivered, fmt.Errorf("list unpublished: %w", err)
		}
		if len(pending) == 0 {
			return delivered, nil
		}
		// One event at a time so a failure never skips ahead of an
		// undelivered predecessor.
		for _, evt := range pending {
			if err := r.bus.Publish(ctx, evt); err != nil {
				return delivered, err
			}
			if err := r.outbox.MarkPublished(ctx, r.clock().UTC(), evt.Seq); err != nil {
				return delivered, fmt.Errorf("mark published %d: %w", evt.Seq, err)
			}
			delivered++
		}
		if delivered > 0 {
			r.logger.Info("outbox relayed", zap.Int("events", delivered), zap.Uint64("last_seq", pending[len(pending)-1].Seq))
		}
		if len(pending) < r.batch {
			return delivered, nil
		}
	}
}
