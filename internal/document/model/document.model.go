package model

import (
	"errors"
	"time"
)

const (
	RoleOwner    = "owner"
	RoleWriter   = "writer"
	RoleReviewer = "reviewer"
	RoleReader   = "reader"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrVersionConflict  = errors.New("version conflict")
	ErrInvalidInput     = errors.New("invalid input")
)

// Document is the versioned LaTeX record. Version only moves forward: every
// accepted save stores the previous stored version plus one.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Version        int64     `json:"version"`
	OwnerID        string    `json:"owner_id"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	LastAuthor     string    `json:"last_author"`
}

// PresenceEntry records that a user had the document open at LastSeenAt.
type PresenceEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"name"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// SaveDocRequest is the body of POST /api/documents/{id}/update. BaseVersion
// switches the save to compare-and-swap; without it the write is
// last-write-wins.
type SaveDocRequest struct {
	Content     string `json:"content"`
	BaseVersion *int64 `json:"base_version,omitempty"`
}

// FetchResponse, SaveResponse and PresenceResponse share the success
// discriminator. A failed response only ever carries Message.
type FetchResponse struct {
	Success bool    `json:"success"`
	Content *string `json:"content,omitempty"`
	Version *int64  `json:"version,omitempty"`
	Title   *string `json:"title,omitempty"`
	Message string  `json:"message,omitempty"`
}

type SaveResponse struct {
	Success bool   `json:"success"`
	Version *int64 `json:"version,omitempty"`
	Message string `json:"message,omitempty"`
}

type ActiveUser struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}

type PresenceResponse struct {
	Success     bool          `json:"success"`
	ActiveUsers *[]ActiveUser `json:"active_users,omitempty"`
	Message     string        `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
