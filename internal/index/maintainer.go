// Package index maintains the per-user document index (user_files):
// the "created" entries of each author and the "shared" entries of
// each grantee. The index is denormalized from the documents and
// document_access tables and must stay synchronized with them, so
// every method runs on the caller's transaction.
package index

import (
	"database/sql"

	"docshare/pkg/logger"
)

const (
	RelationCreated = "created"
	RelationShared  = "shared"
)

// Execer is the slice of *sql.Tx the maintainer needs.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type Maintainer struct{}

func NewMaintainer() *Maintainer {
	return &Maintainer{}
}

func (m *Maintainer) OnDocumentCreated(tx Execer, docID, ownerID string) error {
	return m.insert(tx, docID, ownerID, RelationCreated)
}

// OnAccessGranted records docID in the grantee's shared index.
// Idempotent: re-granting at a different level leaves one entry.
func (m *Maintainer) OnAccessGranted(tx Execer, docID, userID string) error {
	return m.insert(tx, docID, userID, RelationShared)
}

// OnAccessRevoked removes docID from the target's shared index.
// Removing an absent entry is not an error.
func (m *Maintainer) OnAccessRevoked(tx Execer, docID, userID string) error {
	_, err := tx.Exec(`DELETE FROM user_files WHERE user_id = $1 AND document_id = $2 AND relation = $3`,
		userID, docID, RelationShared)
	if err != nil {
		logger.Sugar.Errorf("Failed to remove doc %s from shared index of user %s: %v", docID, userID, err)
	}
	return err
}

// OnDocumentDeleted removes docID from every index referencing it:
// the author's created entry and all grantees' shared entries. Must
// run in the same transaction as the document row deletion.
func (m *Maintainer) OnDocumentDeleted(tx Execer, docID string) error {
	_, err := tx.Exec(`DELETE FROM user_files WHERE document_id = $1`, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to cascade index removal for doc %s: %v", docID, err)
	}
	return err
}

func (m *Maintainer) insert(tx Execer, docID, userID, relation string) error {
	_, err := tx.Exec(`INSERT INTO user_files (user_id, document_id, relation) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, document_id, relation) DO NOTHING`,
		userID, docID, relation)
	if err != nil {
		logger.Sugar.Errorf("Failed to add doc %s to %s index of user %s: %v", docID, relation, userID, err)
	}
	return err
}
