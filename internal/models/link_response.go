package models

import "time"

// LinkResponse represents a link returned by the API
type LinkResponse struct {
	Slug      string     `json:"slug"`
	TargetURL string     `json:"target_url"`
	ShortURL  string     `json:"short_url"` // Full short URL (base URL + slug)
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PreviewResponse is the metadata shown by the link-preview UI. Previews do
// not count as clicks.
type PreviewResponse struct {
	Slug      string     `json:"slug"`
	TargetURL string     `json:"target_url"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
