package entity

import (
	"time"

	"github.com/google/uuid"
)

// Reflection is a generated structured result stored against its note.
type Reflection struct {
	Id        uuid.UUID
	NoteId    uuid.UUID
	Mode      string
	Result    map[string]any
	Source    string // "classic" | "stream"
	CreatedAt time.Time
}
