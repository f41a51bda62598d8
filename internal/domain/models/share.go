package models

import "time"

// Share item types
const (
	ShareTypeFile   = "file"
	ShareTypeFolder = "folder"
)

// Share grants read-only access to a file or folder via an unguessable
// token. A folder share cascades to the whole subtree without per-item
// shares. Ownership never changes.
type Share struct {
	ID        int64      `json:"id"`
	ItemID    int64      `json:"item_id"`
	Type      string     `json:"type"` // ShareTypeFile or ShareTypeFolder
	Token     string     `json:"token"`
	UserID    int64      `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the share has passed its expiry, if it has one.
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
