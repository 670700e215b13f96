// Package models defines the domain types shared across Cardbase.
package models

import "time"

// FileMeta is a lightweight representation of a vault file returned by
// list operations.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Card is the full CMS-style representation of a note: everything the
// card grid needs to render one entry.
type Card struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Preview     string         `json:"preview"`
	Image       string         `json:"image,omitempty"`
	Tags        []string       `json:"tags"`
	Draft       bool           `json:"draft"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CardSummary is the lightweight card used in paginated grid listings.
type CardSummary struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Image     string    `json:"image,omitempty"`
	Tags      []string  `json:"tags"`
	Draft     bool      `json:"draft"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
