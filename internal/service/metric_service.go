package service

import (
	"context"

	"ai-notes-reflect/internal/repository/unitofwork"
)

type IMetricService interface {
	GetAll(ctx context.Context) (map[string]int64, error)
}

type metricService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMetricService(uowFactory unitofwork.RepositoryFactory) IMetricService {
	return &metricService{uowFactory: uowFactory}
}

func (s *metricService) GetAll(ctx context.Context) (map[string]int64, error) {
	metrics, err := s.uowFactory.NewUnitOfWork(ctx).MetricRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(metrics))
	for _, m := range metrics {
		result[m.Event] = m.Count
	}
	return result, nil
}
