// Package models defines the records of the freelancer workspace: clients,
// contracts, invoices and projects, plus the read-only category catalog.
package models

import "time"

// PlaceholderUserID owns every seed record and is the default owner of new
// ones until a real session identifies the user.
const PlaceholderUserID = "user-1"

// Meta is embedded by every record type.
type Meta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetMeta exposes the embedded metadata to generic code.
func (m *Meta) GetMeta() *Meta { return m }

// GetUserID implements the Ownable interface for authorization.
func (m *Meta) GetUserID() string { return m.UserID }
