package entities

import "time"

// Link represents a shortened link in the database
type Link struct {
	ID        string     `json:"id"` // UUID
	Slug      string     `json:"slug"`
	TargetURL string     `json:"target_url"`
	OwnerID   *string    `json:"owner_id,omitempty"` // Pointer allows nil (for anonymous links), UUID
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // Pointer allows nil (no expiration)
}

// Resolvable reports whether the link may still be redirected to at the
// given instant. Deactivated and expired links resolve to not-found.
func (l *Link) Resolvable(now time.Time) bool {
	if !l.Active {
		return false
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return false
	}
	return true
}
