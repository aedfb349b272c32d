package models

import "time"

// CreateLinkRequest represents the request body for creating a short link
type CreateLinkRequest struct {
	URL       string     `json:"url" binding:"required,url"` // Gin validation: required and must be valid URL
	Slug      *string    `json:"slug,omitempty"`             // Optional custom slug
	ExpiresAt *time.Time `json:"expires_at,omitempty"`       // Optional expiration date
}

// UpdateLinkRequest represents the request body for retargeting a link
type UpdateLinkRequest struct {
	TargetURL string `json:"target_url" binding:"required,url"`
}
