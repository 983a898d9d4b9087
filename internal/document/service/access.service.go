package service

import (
	"database/sql"
	"errors"

	"docshare/internal/document/model"
	"docshare/internal/document/repository"
	"docshare/internal/index"
	"docshare/pkg/apperr"
)

// Notifier is the sharing-notification boundary. Emission is
// fire-and-forget: a dead notifier never fails a grant.
type Notifier interface {
	ShareUpdate(docID, sharedWith, accessLevel string)
}

// AccessService owns the sharing rules: who may act on a document,
// at what level, and how grants propagate into user indexes.
type AccessService struct {
	Repo     *repository.DocumentRepository
	Index    *index.Maintainer
	Notifier Notifier
}

func NewAccessService(repo *repository.DocumentRepository, idx *index.Maintainer, notifier Notifier) *AccessService {
	return &AccessService{Repo: repo, Index: idx, Notifier: notifier}
}

// Grant gives the user behind granteeEmail the named access level.
// Only the owner may grant. Re-granting moves the grantee to the new
// level rather than duplicating it. Returns the updated member list.
func (s *AccessService) Grant(docID, granterID, granteeEmail, level string) ([]model.Member, error) {
	if !model.ValidLevel(level) {
		return nil, apperr.InvalidArgument("invalid access level: must be editor, reviewer, or reader")
	}

	ownerID, err := s.Repo.GetOwnerID(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load document", err)
	}
	if ownerID != granterID {
		return nil, apperr.Forbidden("only the owner can share this document")
	}

	granteeID, err := s.Repo.GetUserByEmail(granteeEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no user found with that email")
	}
	if err != nil {
		return nil, apperr.Internal("failed to resolve user", err)
	}
	if granteeID == ownerID {
		return nil, apperr.InvalidArgument("cannot share a document with its owner")
	}

	tx, err := s.Repo.Begin()
	if err != nil {
		return nil, apperr.Internal("failed to begin transaction", err)
	}
	if err := s.Repo.UpsertAccess(tx, docID, granteeID, level); err != nil {
		tx.Rollback()
		return nil, apperr.Internal("failed to record grant", err)
	}
	if err := s.Index.OnAccessGranted(tx, docID, granteeID); err != nil {
		tx.Rollback()
		return nil, apperr.Internal("failed to update shared index", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit grant", err)
	}

	s.Notifier.ShareUpdate(docID, granteeEmail, level)

	members, err := s.Repo.ListMembers(docID)
	if err != nil {
		return nil, apperr.Internal("failed to list members", err)
	}
	return members, nil
}

// Revoke removes the target's access at any level. Revoking a user
// who holds no access succeeds as a no-op.
func (s *AccessService) Revoke(docID, revokerID, targetID string) error {
	ownerID, err := s.Repo.GetOwnerID(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("document not found")
	}
	if err != nil {
		return apperr.Internal("failed to load document", err)
	}
	if ownerID != revokerID {
		return apperr.Forbidden("only the owner can revoke access")
	}

	tx, err := s.Repo.Begin()
	if err != nil {
		return apperr.Internal("failed to begin transaction", err)
	}
	if err := s.Repo.RemoveAccess(tx, docID, targetID); err != nil {
		tx.Rollback()
		return apperr.Internal("failed to remove grant", err)
	}
	if err := s.Index.OnAccessRevoked(tx, docID, targetID); err != nil {
		tx.Rollback()
		return apperr.Internal("failed to update shared index", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal("failed to commit revoke", err)
	}
	return nil
}

// CheckAccess resolves userID's role on the document:
// owner > editor > reviewer > reader > none. "none" is a value,
// not an error; callers decide whether it means Forbidden.
func (s *AccessService) CheckAccess(docID, userID string) (string, error) {
	ownerID, err := s.Repo.GetOwnerID(docID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.NotFound("document not found")
	}
	if err != nil {
		return "", apperr.Internal("failed to load document", err)
	}
	if ownerID == userID {
		return model.RoleOwner, nil
	}

	level, err := s.Repo.GetAccessLevel(docID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RoleNone, nil
	}
	if err != nil {
		return "", apperr.Internal("failed to load access level", err)
	}
	return level, nil
}

// ListMembers returns every identity with access: owner first, then
// editors, reviewers, and readers in grant order.
func (s *AccessService) ListMembers(docID, callerID string) ([]model.Member, error) {
	role, err := s.CheckAccess(docID, callerID)
	if err != nil {
		return nil, err
	}
	if role == model.RoleNone {
		return nil, apperr.Forbidden("you do not have access to this document")
	}

	members, err := s.Repo.ListMembers(docID)
	if err != nil {
		return nil, apperr.Internal("failed to list members", err)
	}
	return members, nil
}
