package threat

import (
	"time"

	"github.com/google/uuid"
)

type ListKind string

const (
	ListAllow ListKind = "allow"
	ListDeny  ListKind = "deny"
)

// ListEntry is the durable record of an allow/deny list mutation. Redis is
// the authoritative hot copy; these rows exist for operator queries.
type ListEntry struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	IP        string     `json:"ip" gorm:"index"`
	Kind      ListKind   `json:"kind" gorm:"index"`
	Active    bool       `json:"active"`
	Reason    *string    `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (e ListEntry) TableName() string {
	return "public.list_entries"
}

// Expired reports whether a deny entry has lapsed. Entries without an
// expiry never lapse.
func (e ListEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}
