package session

import (
	"context"
	"time"
)

// Snapshot is one fetched document record.
type Snapshot struct {
	Content string
	Version int64
	Title   string
}

// DocumentStore loads and saves document content. A nil baseVersion asks for
// an unconditional write; otherwise the store rejects the save with
// model.ErrVersionConflict unless it still holds *baseVersion.
type DocumentStore interface {
	Load(ctx context.Context, docID string) (Snapshot, error)
	Save(ctx context.Context, docID, content string, baseVersion *int64) (int64, error)
}

// Peer is one active editor as reported by a heartbeat.
type Peer struct {
	UserID   string
	Name     string
	LastSeen time.Time
}

// PresenceService refreshes the caller's own entry and lists every live one.
type PresenceService interface {
	Heartbeat(ctx context.Context, docID string) ([]Peer, error)
}

// StatusKind styles the status indicator.
type StatusKind string

const (
	StatusBusy  StatusKind = "saving"
	StatusOK    StatusKind = "saved"
	StatusError StatusKind = "error"
	StatusNone  StatusKind = ""
)

const (
	StatusLoading   = "Loading..."
	StatusLoaded    = "Loaded"
	StatusSaving    = "Saving..."
	StatusSaved     = "Saved"
	StatusSaveError = "Error saving"
)

// NotificationKind is the toast style.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

const (
	MsgLoadFailed    = "Failed to load document"
	MsgSaveFailed    = "Failed to save document"
	MsgRemoteUpdated = "Document updated by another user"
	MsgDenied        = "Permission denied"
)

// Notifier receives everything the session wants shown around the editor.
type Notifier interface {
	SetStatus(message string, kind StatusKind)
	Notify(message string, kind NotificationKind)
	ShowActiveUsers(peers []Peer)
}

// Preview displays a rendered fragment. Math spans inside it still carry
// their delimiters.
type Preview interface {
	Show(fragment string)
}

type nopNotifier struct{}

func (nopNotifier) SetStatus(string, StatusKind)    {}
func (nopNotifier) Notify(string, NotificationKind) {}
func (nopNotifier) ShowActiveUsers([]Peer)          {}

type nopPreview struct{}

func (nopPreview) Show(string) {}
