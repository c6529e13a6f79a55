package threat

import (
	"time"

	"github.com/google/uuid"
)

type IdentifierType string

const (
	IdentifierIP    IdentifierType = "ip"
	IdentifierEmail IdentifierType = "email"
)

// AttemptRecord is an append-only archive row for one recorded attempt.
type AttemptRecord struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Identifier string         `json:"identifier" gorm:"index"`
	Type       IdentifierType `json:"type"`
	Endpoint   string         `json:"endpoint"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
}

func (a AttemptRecord) TableName() string {
	return "public.attempt_records"
}
