package implementation

import (
	"context"

	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/mapper"
	"ai-notes-reflect/internal/model"
	"ai-notes-reflect/internal/repository/contract"
	"ai-notes-reflect/internal/repository/specification"

	"gorm.io/gorm"
)

type ReflectionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReflectionMapper
}

func NewReflectionRepository(db *gorm.DB) contract.ReflectionRepository {
	return &ReflectionRepositoryImpl{
		db:     db,
		mapper: mapper.NewReflectionMapper(),
	}
}

func (r *ReflectionRepositoryImpl) Create(ctx context.Context, reflection *entity.Reflection) error {
	m, err := r.mapper.ToModel(reflection)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	reflection.Id = m.Id
	reflection.CreatedAt = m.CreatedAt
	return nil
}

func (r *ReflectionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reflection, error) {
	var models []*model.Reflection
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}
