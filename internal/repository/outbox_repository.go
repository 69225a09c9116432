package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopflow/internal/db"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/port"
)

type outboxRepository struct {
	q *db.Queries
}

func NewStatusChangeOutbox(pool *pgxpool.Pool) (port.StatusChangeOutbox, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &outboxRepository{q: db.New(pool)}, nil
}

func (r *outboxRepository) ListUnpublished(ctx context.Context, limit int) ([]domain.StatusChange, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d is not positive", limit)
	}

	rows, err := r.q.ListUnpublishedStatusChanges(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.ListUnpublishedStatusChanges: %w", err)
	}

	return mapStatusChangesToDomain(rows), nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := r.q.MarkStatusChangesPublished(ctx, ids); err != nil {
		return fmt.Errorf("q.MarkStatusChangesPublished: %w", err)
	}

	return nil
}
