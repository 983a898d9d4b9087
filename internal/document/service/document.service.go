package service

import (
	"database/sql"
	"encoding/json"
	"errors"

	"docshare/internal/document/model"
	"docshare/internal/document/repository"
	"docshare/internal/index"
	"docshare/pkg/apperr"

	"github.com/google/uuid"
)

const DefaultListLimit = 10

type DocumentService struct {
	Repo   *repository.DocumentRepository
	Index  *index.Maintainer
	Access *AccessService
}

func NewDocumentService(repo *repository.DocumentRepository, idx *index.Maintainer, access *AccessService) *DocumentService {
	return &DocumentService{Repo: repo, Index: idx, Access: access}
}

// Create allocates a new document for ownerID. Title defaults to
// "Untitled Document", content starts empty. The document row and the
// author's index entry are written in one transaction.
func (s *DocumentService) Create(ownerID, title string, metadata json.RawMessage) (*model.Document, error) {
	if title == "" {
		title = "Untitled Document"
	}
	doc := &model.Document{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Title:    title,
		Content:  "",
		Metadata: metadata,
	}

	tx, err := s.Repo.Begin()
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	if err := s.Repo.Insert(tx, doc); err != nil {
		tx.Rollback()
		return nil, apperr.Internal("failed to create document", err)
	}
	if err := s.Index.OnDocumentCreated(tx, doc.ID, ownerID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal("failed to update created index", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit create", err)
	}
	return doc, nil
}

// Get returns the document if the caller holds any role on it.
func (s *DocumentService) Get(docID, callerID string) (*model.Document, error) {
	role, err := s.Access.CheckAccess(docID, callerID)
	if err != nil {
		return nil, err
	}
	if role == model.RoleNone {
		return nil, apperr.Forbidden("you do not have access to this document")
	}

	doc, err := s.Repo.Get(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load document", err)
	}
	return doc, nil
}

// Update rewrites title and/or content. Owners and editors only;
// reviewers and readers cannot mutate.
func (s *DocumentService) Update(docID, callerID string, title, content *string) (*model.Document, error) {
	if title == nil && content == nil {
		return nil, apperr.InvalidArgument("nothing to update: provide title or content")
	}

	role, err := s.Access.CheckAccess(docID, callerID)
	if err != nil {
		return nil, err
	}
	if !model.CanEdit(role) {
		return nil, apperr.Forbidden("only the owner or an editor can modify this document")
	}

	rowsAffected, err := s.Repo.Update(docID, title, content)
	if err != nil {
		return nil, apperr.Internal("failed to update document", err)
	}
	if rowsAffected == 0 {
		return nil, apperr.NotFound("document not found")
	}

	doc, err := s.Repo.Get(docID)
	if err != nil {
		return nil, apperr.Internal("failed to reload document", err)
	}
	return doc, nil
}

// Delete removes the document and cascades through every index that
// references it. All-or-nothing: any failure aborts the transaction
// and leaves both the document and the indexes untouched.
func (s *DocumentService) Delete(docID, callerID string) error {
	ownerID, err := s.Repo.GetOwnerID(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("document not found")
	}
	if err != nil {
		return apperr.Internal("failed to load document", err)
	}
	if ownerID != callerID {
		return apperr.Forbidden("only the owner can delete this document")
	}

	tx, err := s.Repo.Begin()
	if err != nil {
		return apperr.Internal("failed to begin transaction", err)
	}
	if err := s.Index.OnDocumentDeleted(tx, docID); err != nil {
		tx.Rollback()
		return apperr.Internal("failed to cascade index removal", err)
	}
	if err := s.Repo.DeleteTx(tx, docID); err != nil {
		tx.Rollback()
		return apperr.Internal("failed to delete document", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal("failed to commit delete", err)
	}
	return nil
}

// ListRecent returns the caller's own documents, most recently
// modified first.
func (s *DocumentService) ListRecent(userID string, limit int) ([]model.DocumentSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	docs, err := s.Repo.ListCreated(userID, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list recent documents", err)
	}
	if docs == nil {
		docs = []model.DocumentSummary{}
	}
	return docs, nil
}

// ListShared returns documents shared with the caller, annotated with
// each owner's name and email.
func (s *DocumentService) ListShared(userID string, limit int) ([]model.DocumentSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	docs, err := s.Repo.ListShared(userID, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list shared documents", err)
	}
	if docs == nil {
		docs = []model.DocumentSummary{}
	}
	return docs, nil
}
