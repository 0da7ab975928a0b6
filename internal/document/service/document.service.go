package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"texcollab/internal/document/model"
	"texcollab/internal/presence"
)

// DocumentStore is the storage boundary. Both the postgres and the in-memory
// repositories satisfy it.
type DocumentStore interface {
	Create(ctx context.Context, doc model.Document) error
	Get(ctx context.Context, docID string) (*model.Document, error)
	UpdateContent(ctx context.Context, docID, content, authorID string) (int64, error)
	UpdateContentIfVersion(ctx context.Context, docID, content, authorID string, expected int64) (int64, error)
	GetRole(ctx context.Context, docID, userID string) (string, error)
	AddCollaborator(ctx context.Context, docID, userID, role string) error
}

type DocumentService struct {
	Repo     DocumentStore
	Presence presence.Registry
}

func NewDocumentService(repo DocumentStore, registry presence.Registry) *DocumentService {
	return &DocumentService{Repo: repo, Presence: registry}
}

// CanRead reports whether userID may fetch the document and heartbeat on it.
func (s *DocumentService) CanRead(ctx context.Context, docID, userID string) (bool, error) {
	role, err := s.Repo.GetRole(ctx, docID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

// CanEdit reports whether userID may save the document.
func (s *DocumentService) CanEdit(ctx context.Context, docID, userID string) (bool, error) {
	role, err := s.Repo.GetRole(ctx, docID, userID)
	if err != nil {
		return false, err
	}
	return role == model.RoleOwner || role == model.RoleWriter, nil
}

func (s *DocumentService) LoadDocument(ctx context.Context, docID, userID string) (*model.Document, error) {
	ok, err := s.CanRead(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPermissionDenied
	}
	return s.Repo.Get(ctx, docID)
}

// SaveDocument writes content and returns the new stored version. With a nil
// baseVersion the write is last-write-wins; otherwise it fails with
// ErrVersionConflict unless the stored version still equals *baseVersion.
func (s *DocumentService) SaveDocument(ctx context.Context, docID, userID, content string, baseVersion *int64) (int64, error) {
	ok, err := s.CanEdit(ctx, docID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, model.ErrPermissionDenied
	}
	if baseVersion != nil {
		return s.Repo.UpdateContentIfVersion(ctx, docID, content, userID, *baseVersion)
	}
	return s.Repo.UpdateContent(ctx, docID, content, userID)
}

// Heartbeat refreshes the caller's presence entry and returns every live
// entry for the document, the caller included.
func (s *DocumentService) Heartbeat(ctx context.Context, docID, userID, displayName string) ([]model.PresenceEntry, error) {
	ok, err := s.CanRead(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPermissionDenied
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = userID
	}
	return s.Presence.Heartbeat(ctx, docID, model.PresenceEntry{UserID: userID, DisplayName: displayName})
}

// ActiveUsers lists live presence entries without refreshing the caller.
func (s *DocumentService) ActiveUsers(ctx context.Context, docID, userID string) ([]model.PresenceEntry, error) {
	ok, err := s.CanRead(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrPermissionDenied
	}
	return s.Presence.Active(ctx, docID)
}

// CreateDocument seeds a new document owned by ownerID. An empty docID gets a
// generated one.
func (s *DocumentService) CreateDocument(ctx context.Context, docID, ownerID, title, content string) (string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return "", fmt.Errorf("%w: owner is required", model.ErrInvalidInput)
	}
	if docID == "" {
		docID = uuid.NewString()
	}
	if title == "" {
		title = "Untitled Document"
	}
	err := s.Repo.Create(ctx, model.Document{ID: docID, Title: title, Content: content, OwnerID: ownerID})
	return docID, err
}

// GrantAccess records a collaborator role on a document.
func (s *DocumentService) GrantAccess(ctx context.Context, docID, userID, role string) error {
	switch role {
	case model.RoleWriter, model.RoleReviewer, model.RoleReader:
	default:
		return fmt.Errorf("%w: role must be writer, reviewer, or reader", model.ErrInvalidInput)
	}
	return s.Repo.AddCollaborator(ctx, docID, userID, role)
}
