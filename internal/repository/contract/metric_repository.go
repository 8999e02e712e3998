package contract

import (
	"context"

	"ai-notes-reflect/internal/entity"
)

type MetricRepository interface {
	Increment(ctx context.Context, event string) error
	FindAll(ctx context.Context) ([]*entity.Metric, error)
}
