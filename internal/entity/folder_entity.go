package entity

import (
	"time"

	"github.com/google/uuid"
)

type Folder struct {
	Id        uuid.UUID
	Name      string
	CreatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
