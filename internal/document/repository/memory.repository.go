package repository

import (
	"context"
	"sync"
	"time"

	"texcollab/internal/document/model"
)

// MemoryDocumentRepository keeps documents in process memory. It is used when
// no database is configured and by tests.
type MemoryDocumentRepository struct {
	mu            sync.Mutex
	docs          map[string]model.Document
	collaborators map[string]map[string]string // docID -> userID -> role
	now           func() time.Time
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{
		docs:          make(map[string]model.Document),
		collaborators: make(map[string]map[string]string),
		now:           time.Now,
	}
}

func (r *MemoryDocumentRepository) Create(_ context.Context, doc model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return model.ErrInvalidInput
	}
	doc.LastModifiedAt = r.now()
	doc.LastAuthor = doc.OwnerID
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryDocumentRepository) Get(_ context.Context, docID string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &doc, nil
}

func (r *MemoryDocumentRepository) UpdateContent(_ context.Context, docID, content, authorID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return 0, model.ErrNotFound
	}
	return r.writeLocked(doc, content, authorID), nil
}

func (r *MemoryDocumentRepository) UpdateContentIfVersion(_ context.Context, docID, content, authorID string, expected int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return 0, model.ErrNotFound
	}
	if doc.Version != expected {
		return 0, model.ErrVersionConflict
	}
	return r.writeLocked(doc, content, authorID), nil
}

func (r *MemoryDocumentRepository) writeLocked(doc model.Document, content, authorID string) int64 {
	doc.Content = content
	doc.Version++
	doc.LastModifiedAt = r.now()
	doc.LastAuthor = authorID
	r.docs[doc.ID] = doc
	return doc.Version
}

func (r *MemoryDocumentRepository) GetRole(_ context.Context, docID, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return "", model.ErrNotFound
	}
	if doc.OwnerID == userID {
		return model.RoleOwner, nil
	}
	return r.collaborators[docID][userID], nil
}

func (r *MemoryDocumentRepository) AddCollaborator(_ context.Context, docID, userID, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[docID]; !ok {
		return model.ErrNotFound
	}
	if r.collaborators[docID] == nil {
		r.collaborators[docID] = make(map[string]string)
	}
	r.collaborators[docID][userID] = role
	return nil
}
