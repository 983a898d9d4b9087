package service

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"docshare/internal/document/model"
	"docshare/pkg/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAppliesDefaults(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(sqlmock.AnyArg(), "owner-1", "Untitled Document", "", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_modified"}).AddRow(now, now))
	mock.ExpectExec("INSERT INTO user_files").
		WithArgs("owner-1", sqlmock.AnyArg(), "created").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := docs.Create("owner-1", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Untitled Document", doc.Title)
	assert.Equal(t, "", doc.Content)
	assert.Equal(t, "owner-1", doc.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequiresSomeRole(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	expectOwnerQuery(mock, "doc-1", "owner-1")
	mock.ExpectQuery("SELECT level FROM document_access").
		WithArgs("doc-1", "stranger").
		WillReturnError(sql.ErrNoRows)

	_, err := docs.Get("doc-1", "stranger")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownDocument(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM documents WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := docs.Get("missing", "owner-1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateForbiddenForReader(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	expectOwnerQuery(mock, "doc-1", "owner-1")
	mock.ExpectQuery("SELECT level FROM document_access").
		WithArgs("doc-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"level"}).AddRow(model.LevelReader))

	title := "hijacked"
	_, err := docs.Update("doc-1", "user-2", &title, nil)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByEditorRefreshesLastModified(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	expectOwnerQuery(mock, "doc-1", "owner-1")
	mock.ExpectQuery("SELECT level FROM document_access").
		WithArgs("doc-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"level"}).AddRow(model.LevelEditor))

	content := "revised body"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET content = $1, last_modified = NOW() WHERE id = $2")).
		WithArgs(content, "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	mock.ExpectQuery("SELECT d.id, d.owner_id, d.title").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "title", "content", "metadata", "created_at", "last_modified", "name", "email"}).
			AddRow("doc-1", "owner-1", "Untitled Document", content, nil, now.Add(-time.Hour), now, "Owner", "owner@example.com"))

	doc, err := docs.Update("doc-1", "user-2", nil, &content)
	require.NoError(t, err)
	assert.Equal(t, content, doc.Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithNoFieldsRejected(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	_, err := docs.Update("doc-1", "owner-1", nil, nil)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOwnerOnly(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	expectOwnerQuery(mock, "doc-1", "owner-1")

	err := docs.Delete("doc-1", "editor-user")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadesThroughIndexesInOneTransaction(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	expectOwnerQuery(mock, "doc-1", "owner-1")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_files WHERE document_id = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM document_access WHERE document_id = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, docs.Delete("doc-1", "owner-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRollsBackOnPartialFailure(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	expectOwnerQuery(mock, "doc-1", "owner-1")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_files WHERE document_id = $1")).
		WithArgs("doc-1").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := docs.Delete("doc-1", "owner-1")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentDefaultsLimit(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("SELECT d.id, d.title, d.created_at, d.last_modified").
		WithArgs("owner-1", DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "last_modified"}).
			AddRow("doc-2", "Notes", now.Add(-time.Hour), now).
			AddRow("doc-1", "Older", now.Add(-2*time.Hour), now.Add(-time.Hour)))

	list, err := docs.ListRecent("owner-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "doc-2", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSharedAnnotatesOwner(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery("SELECT d.id, d.title, d.created_at, d.last_modified, d.owner_id").
		WithArgs("user-2", DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "last_modified", "owner_id", "name", "email"}).
			AddRow("doc-1", "Shared Doc", now.Add(-time.Hour), now, "owner-1", "Owner", "owner@example.com"))

	list, err := docs.ListShared("user-2", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "owner@example.com", list[0].OwnerEmail)
	assert.Equal(t, "Owner", list[0].OwnerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSharedEmptyIsEmptySliceNotNil(t *testing.T) {
	docs, _, _, mock, done := newTestServices(t)
	defer done()

	mock.ExpectQuery("SELECT d.id, d.title, d.created_at, d.last_modified, d.owner_id").
		WithArgs("user-2", DefaultListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at", "last_modified", "owner_id", "name", "email"}))

	list, err := docs.ListShared("user-2", 0)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Len(t, list, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}
