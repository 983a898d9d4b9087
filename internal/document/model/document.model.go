package model

import (
	"encoding/json"
	"time"
)

const (
	RoleOwner = "owner"
	RoleNone  = "none"

	LevelEditor   = "editor"
	LevelReviewer = "reviewer"
	LevelReader   = "reader"
)

// ValidLevel reports whether level is a grantable access level.
// "owner" is not grantable; ownership is fixed at creation.
func ValidLevel(level string) bool {
	switch level {
	case LevelEditor, LevelReviewer, LevelReader:
		return true
	}
	return false
}

// CanEdit reports whether role may mutate a document's title or content.
func CanEdit(role string) bool {
	return role == RoleOwner || role == LevelEditor
}

type Document struct {
	ID           string          `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	LastModified time.Time       `json:"last_modified"`
	OwnerName    string          `json:"owner_name,omitempty"`
	OwnerEmail   string          `json:"owner_email,omitempty"`
}

// DocumentSummary is the listing shape for recent/shared views.
// Owner fields are populated only on shared listings.
type DocumentSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	OwnerID      string    `json:"owner_id,omitempty"`
	OwnerName    string    `json:"owner_name,omitempty"`
	OwnerEmail   string    `json:"owner_email,omitempty"`
}

type Member struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type CreateDocRequest struct {
	Title    string          `json:"title"`
	Metadata json.RawMessage `json:"metadata"`
}

type CreateDocResponse struct {
	DocID string `json:"document_id"`
}

type UpdateDocRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type ShareRequest struct {
	DocID string `json:"document_id"`
	Email string `json:"email"`
	Level string `json:"level"`
}

type RevokeRequest struct {
	DocID  string `json:"document_id"`
	UserID string `json:"user_id"`
}

type AccessResponse struct {
	Role string `json:"role"`
}
