package dto

import (
	"time"

	"github.com/google/uuid"
)

type ReflectRequest struct {
	NoteId        uuid.UUID
	Mode          string         `json:"mode" validate:"required"`
	PromptPayload map[string]any `json:"prompt_payload"`
}

type ReflectionResponse struct {
	Id         uuid.UUID      `json:"id"`
	NoteId     uuid.UUID      `json:"note_id"`
	Mode       string         `json:"mode"`
	ResultJson map[string]any `json:"result_json"`
	CreatedAt  time.Time      `json:"created_at"`
}

type StreamReflectionRequest struct {
	NoteId uuid.UUID
	Mode   string
}

// StreamEvent is the data of one SSE frame of the reflection stream.
type StreamEvent struct {
	Type     string         `json:"type"` // "chunk" | "done"
	Delta    string         `json:"delta,omitempty"`
	FullText string         `json:"full_text,omitempty"`
	Parsed   map[string]any `json:"parsed,omitempty"`
	Error    string         `json:"error,omitempty"`
}
