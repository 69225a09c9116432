package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
	"go.uber.org/zap"
)

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 100
)

// StatusChangedEvent is the message published for every order status transition.
type StatusChangedEvent struct {
	ID        int64     `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryRelay publishes unpublished status history entries in id order, keyed by order id.
// Delivery is at least once: an entry is marked only after a successful publish.
type HistoryRelay struct {
	outbox    port.StatusChangeOutbox
	publisher port.EventPublisher
	logger    *zap.Logger

	interval  time.Duration
	batchSize int
}

type Option func(*HistoryRelay)

func WithInterval(d time.Duration) Option {
	return func(r *HistoryRelay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *HistoryRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewHistoryRelay(outbox port.StatusChangeOutbox, publisher port.EventPublisher, logger *zap.Logger, opts ...Option) (*HistoryRelay, error) {
	if outbox == nil {
		return nil, errors.New("history relay: outbox is required")
	}
	if publisher == nil {
		return nil, errors.New("history relay: publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &HistoryRelay{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r, nil
}

// Run relays batches on every tick until ctx is done.
func (r *HistoryRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("relay status history", zap.Error(err))
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many entries were marked as published.
// It stops at the first publish failure so later entries of the same order are not sent ahead.
func (r *HistoryRelay) RelayOnce(ctx context.Context) (int, error) {
	changes, err := r.outbox.ListUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("outbox.ListUnpublished: %w", err)
	}
	if len(changes) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(changes))
	var publishErr error

	for _, change := range changes {
		payload, err := json.Marshal(newStatusChangedEvent(change))
		if err != nil {
			publishErr = fmt.Errorf("json.Marshal: %w", err)
			break
		}

		if err := r.publisher.Publish(ctx, change.OrderID.String(), payload); err != nil {
			publishErr = fmt.Errorf("publisher.Publish[%d]: %w", change.ID, err)
			break
		}

		published = append(published, change.ID)
	}

	if len(published) > 0 {
		if err := r.outbox.MarkPublished(ctx, published); err != nil {
			return 0, errors.Join(publishErr, fmt.Errorf("outbox.MarkPublished: %w", err))
		}
		r.logger.Debug("relayed status history", zap.Int("count", len(published)))
	}

	return len(published), publishErr
}

func newStatusChangedEvent(c domain.StatusChange) StatusChangedEvent {
	return StatusChangedEvent{
		ID:        c.ID,
		OrderID:   c.OrderID,
		From:      c.From.String(),
		To:        c.To.String(),
		Actor:     c.Actor,
		Reason:    c.Reason,
		CreatedAt: c.CreatedAt,
	}
}
