package contract

import (
	"context"

	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/repository/specification"
)

type ReflectionRepository interface {
	Create(ctx context.Context, reflection *entity.Reflection) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Reflection, error)
}
