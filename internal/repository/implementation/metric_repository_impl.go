package implementation

import (
	"context"

	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/model"
	"ai-notes-reflect/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MetricRepositoryImpl struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) contract.MetricRepository {
	return &MetricRepositoryImpl{db: db}
}

// Increment upserts the counter row of event.
func (r *MetricRepositoryImpl) Increment(ctx context.Context, event string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("metrics.count + 1")}),
	}).Create(&model.Metric{Event: event, Count: 1}).Error
}

func (r *MetricRepositoryImpl) FindAll(ctx context.Context) ([]*entity.Metric, error) {
	var rows []*model.Metric
	if err := r.db.WithContext(ctx).Order("event ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	metrics := make([]*entity.Metric, len(rows))
	for i, m := range rows {
		metrics[i] = &entity.Metric{Event: m.Event, Count: m.Count}
	}
	return metrics, nil
}
