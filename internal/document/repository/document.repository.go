package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"docshare/internal/document/model"
	"docshare/pkg/logger"
)

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func (r *DocumentRepository) Begin() (*sql.Tx, error) {
	return r.DB.Begin()
}

// Insert writes a new document row and returns its timestamps.
func (r *DocumentRepository) Insert(tx *sql.Tx, doc *model.Document) error {
	err := tx.QueryRow(`INSERT INTO documents (id, owner_id, title, content, metadata, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, last_modified`,
		doc.ID, doc.OwnerID, doc.Title, doc.Content, nullableJSON(doc.Metadata),
	).Scan(&doc.CreatedAt, &doc.LastModified)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document %s: %v", doc.ID, err)
	}
	return err
}

func (r *DocumentRepository) Get(docID string) (*model.Document, error) {
	var doc model.Document
	var metadata []byte
	err := r.DB.QueryRow(`SELECT d.id, d.owner_id, d.title, d.content, d.metadata, d.created_at, d.last_modified, u.name, u.email
		FROM documents d JOIN auth.users u ON d.owner_id = u.id
		WHERE d.id = $1`, docID,
	).Scan(&doc.ID, &doc.OwnerID, &doc.Title, &doc.Content, &metadata, &doc.CreatedAt, &doc.LastModified, &doc.OwnerName, &doc.OwnerEmail)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to get doc %s: %v", docID, err)
		}
		return nil, err
	}
	doc.Metadata = metadata
	return &doc, nil
}

func (r *DocumentRepository) GetOwnerID(docID string) (string, error) {
	var ownerID string
	err := r.DB.QueryRow("SELECT owner_id FROM documents WHERE id = $1", docID).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get owner ID for doc %s: %v", docID, err)
	}
	return ownerID, err
}

// GetAccessLevel returns sql.ErrNoRows when userID holds no grant.
func (r *DocumentRepository) GetAccessLevel(docID, userID string) (string, error) {
	var level string
	err := r.DB.QueryRow("SELECT level FROM document_access WHERE document_id = $1 AND user_id = $2", docID, userID).Scan(&level)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get access level: %v", err)
	}
	return level, err
}

// Update applies the non-nil fields and refreshes last_modified.
// Returns the number of rows matched.
func (r *DocumentRepository) Update(docID string, title, content *string) (int64, error) {
	set := []string{}
	args := []interface{}{}
	i := 1
	if title != nil {
		set = append(set, fmt.Sprintf("title = $%d", i))
		args = append(args, *title)
		i++
	}
	if content != nil {
		set = append(set, fmt.Sprintf("content = $%d", i))
		args = append(args, *content)
		i++
	}
	set = append(set, "last_modified = NOW()")
	args = append(args, docID)

	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d", strings.Join(set, ", "), i)
	result, err := r.DB.Exec(query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to update doc %s: %v", docID, err)
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteTx removes the document row and all of its access grants.
// Index cleanup is the maintainer's job, on the same transaction.
func (r *DocumentRepository) DeleteTx(tx *sql.Tx, docID string) error {
	if _, err := tx.Exec("DELETE FROM document_access WHERE document_id = $1", docID); err != nil {
		logger.Sugar.Errorf("Failed to delete access rows for doc %s: %v", docID, err)
		return err
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = $1", docID); err != nil {
		logger.Sugar.Errorf("Failed to delete doc %s: %v", docID, err)
		return err
	}
	return nil
}

func (r *DocumentRepository) GetUserByEmail(email string) (string, error) {
	var userID string
	err := r.DB.QueryRow("SELECT id FROM auth.users WHERE email = $1", email).Scan(&userID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get user by email %s: %v", email, err)
	}
	return userID, err
}

// UpsertAccess inserts or moves a grant. The primary key on
// (document_id, user_id) keeps the three levels mutually exclusive;
// granted_at is preserved across level changes so member listings
// keep insertion order.
func (r *DocumentRepository) UpsertAccess(tx *sql.Tx, docID, userID, level string) error {
	_, err := tx.Exec(`INSERT INTO document_access (document_id, user_id, level, granted_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (document_id, user_id) DO UPDATE SET level = EXCLUDED.level`,
		docID, userID, level)
	if err != nil {
		logger.Sugar.Errorf("Failed to grant %s access on doc %s to user %s: %v", level, docID, userID, err)
	}
	return err
}

// RemoveAccess deletes a grant; absent rows are a no-op.
func (r *DocumentRepository) RemoveAccess(tx *sql.Tx, docID, userID string) error {
	_, err := tx.Exec("DELETE FROM document_access WHERE document_id = $1 AND user_id = $2", docID, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to revoke access on doc %s for user %s: %v", docID, userID, err)
	}
	return err
}

// ListMembers returns the owner first, then grantees grouped
// editor/reviewer/reader, each group in grant order.
func (r *DocumentRepository) ListMembers(docID string) ([]model.Member, error) {
	query := `
		SELECT u.id, u.email, 'owner' AS role, 0 AS rank, d.created_at AS since
		FROM documents d JOIN auth.users u ON d.owner_id = u.id WHERE d.id = $1
		UNION ALL
		SELECT u.id, u.email, a.level, CASE a.level WHEN 'editor' THEN 1 WHEN 'reviewer' THEN 2 ELSE 3 END, a.granted_at
		FROM document_access a JOIN auth.users u ON a.user_id = u.id WHERE a.document_id = $1
		ORDER BY rank, since`
	rows, err := r.DB.Query(query, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list members for doc %s: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		var rank int
		var since time.Time
		if err := rows.Scan(&m.UserID, &m.Email, &m.Role, &rank, &since); err != nil {
			continue
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListCreated returns the user's authored documents, most recently
// modified first.
func (r *DocumentRepository) ListCreated(userID string, limit int) ([]model.DocumentSummary, error) {
	query := `
		SELECT d.id, d.title, d.created_at, d.last_modified
		FROM documents d JOIN user_files f ON f.document_id = d.id
		WHERE f.user_id = $1 AND f.relation = 'created'
		ORDER BY d.last_modified DESC LIMIT $2`
	rows, err := r.DB.Query(query, userID, limit)
	if err != nil {
		logger.Sugar.Errorf("Failed to list created docs for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []model.DocumentSummary
	for rows.Next() {
		var d model.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.CreatedAt, &d.LastModified); err != nil {
			continue
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ListShared returns documents shared with the user, annotated with
// the owner's public fields.
func (r *DocumentRepository) ListShared(userID string, limit int) ([]model.DocumentSummary, error) {
	query := `
		SELECT d.id, d.title, d.created_at, d.last_modified, d.owner_id, u.name, u.email
		FROM documents d
		JOIN user_files f ON f.document_id = d.id
		JOIN auth.users u ON d.owner_id = u.id
		WHERE f.user_id = $1 AND f.relation = 'shared'
		ORDER BY d.last_modified DESC LIMIT $2`
	rows, err := r.DB.Query(query, userID, limit)
	if err != nil {
		logger.Sugar.Errorf("Failed to list shared docs for user %s: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []model.DocumentSummary
	for rows.Next() {
		var d model.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Title, &d.CreatedAt, &d.LastModified, &d.OwnerID, &d.OwnerName, &d.OwnerEmail); err != nil {
			continue
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
