package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Reflection struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NoteId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Mode       string         `gorm:"type:varchar(32);not null"`
	ResultJson datatypes.JSON `gorm:"column:result_json;type:jsonb;not null"`
	Source     string         `gorm:"type:varchar(16);not null;default:'classic'"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (Reflection) TableName() string {
	return "reflections"
}
