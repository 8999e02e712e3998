package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListNoteRequest struct {
	FolderId *uuid.UUID
}

type CreateNoteRequest struct {
	Title    string     `json:"title" validate:"max=255"`
	Content  string     `json:"content" validate:"required"`
	FolderId *uuid.UUID `json:"folder_id"`
}

// CreateChildNoteRequest creates a sub-note under ParentId, typically the
// export of a reflection.
type CreateChildNoteRequest struct {
	ParentId uuid.UUID
	Title    string `json:"title" validate:"max=255"`
	Content  string `json:"content" validate:"required"`
}

type NoteResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	FolderId  *uuid.UUID `json:"folder_id"`
	ParentId  *uuid.UUID `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// UpdateNoteRequest is a partial update: nil fields are left untouched.
type UpdateNoteRequest struct {
	Id       uuid.UUID
	Title    *string    `json:"title" validate:"omitnil,max=255"`
	Content  *string    `json:"content"`
	FolderId *uuid.UUID `json:"folder_id"`
}

type MoveNoteRequest struct {
	Id       uuid.UUID
	FolderId *uuid.UUID `json:"folder_id"` // nil moves the note to the root
}
