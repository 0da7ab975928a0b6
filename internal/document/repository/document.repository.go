package repository

import (
	"context"
	"database/sql"
	"errors"

	"texcollab/internal/document/model"
	"texcollab/pkg/logger"
)

// DocumentRepository stores documents in postgres. Content is passed as a
// bound parameter in both directions, so no escaping is layered on top of it.
type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc model.Document) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO latex_documents (id, title, content, version, owner_id, last_modified_at, last_author)
		VALUES ($1, $2, $3, $4, $5, NOW(), $5)`,
		doc.ID, doc.Title, doc.Content, doc.Version, doc.OwnerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document %s: %v", doc.ID, err)
	}
	return err
}

func (r *DocumentRepository) Get(ctx context.Context, docID string) (*model.Document, error) {
	var doc model.Document
	err := r.DB.QueryRowContext(ctx, `SELECT id, title, content, version, owner_id, last_modified_at, last_author
		FROM latex_documents WHERE id = $1`, docID).
		Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Version, &doc.OwnerID, &doc.LastModifiedAt, &doc.LastAuthor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load document %s: %v", docID, err)
		return nil, err
	}
	return &doc, nil
}

// UpdateContent overwrites the content unconditionally. The increment is
// computed from the stored version inside the UPDATE, so concurrent saves all
// succeed and the last one to commit wins.
func (r *DocumentRepository) UpdateContent(ctx context.Context, docID, content, authorID string) (int64, error) {
	var version int64
	err := r.DB.QueryRowContext(ctx, `UPDATE latex_documents
		SET content = $1, version = version + 1, last_modified_at = NOW(), last_author = $2
		WHERE id = $3
		RETURNING version`, content, authorID, docID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update content for doc %s: %v", docID, err)
		return 0, err
	}
	return version, nil
}

// UpdateContentIfVersion only writes when the stored version still equals
// expected.
func (r *DocumentRepository) UpdateContentIfVersion(ctx context.Context, docID, content, authorID string, expected int64) (int64, error) {
	var version int64
	err := r.DB.QueryRowContext(ctx, `UPDATE latex_documents
		SET content = $1, version = version + 1, last_modified_at = NOW(), last_author = $2
		WHERE id = $3 AND version = $4
		RETURNING version`, content, authorID, docID, expected).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Sugar.Errorf("Failed to update content for doc %s: %v", docID, err)
		return 0, err
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM latex_documents WHERE id = $1)", docID).Scan(&exists); err != nil {
		logger.Sugar.Errorf("Failed to check existence of doc %s: %v", docID, err)
		return 0, err
	}
	if !exists {
		return 0, model.ErrNotFound
	}
	return 0, model.ErrVersionConflict
}

// GetRole returns RoleOwner for the owner, the collaborator role when one is
// recorded, or "" when the user has no relation to the document.
func (r *DocumentRepository) GetRole(ctx context.Context, docID, userID string) (string, error) {
	var ownerID, role string
	err := r.DB.QueryRowContext(ctx, `SELECT d.owner_id, COALESCE(c.role, '')
		FROM latex_documents d
		LEFT JOIN latex_collaborators c ON c.document_id = d.id AND c.user_id = $2
		WHERE d.id = $1`, docID, userID).Scan(&ownerID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get role of user %s on doc %s: %v", userID, docID, err)
		return "", err
	}
	if ownerID == userID {
		return model.RoleOwner, nil
	}
	return role, nil
}

func (r *DocumentRepository) AddCollaborator(ctx context.Context, docID, userID, role string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO latex_collaborators (document_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (document_id, user_id) DO UPDATE SET role = $3`, docID, userID, role)
	if err != nil {
		logger.Sugar.Errorf("Failed to add collaborator %s to doc %s: %v", userID, docID, err)
	}
	return err
}
