package contract

import (
	"context"

	"ai-notes-reflect/internal/entity"
	"ai-notes-reflect/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	Update(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	DetachFolder(ctx context.Context, folderId uuid.UUID) error // move every note of a folder to the root
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
}
