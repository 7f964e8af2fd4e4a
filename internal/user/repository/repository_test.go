package repository

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
)

func newRepo(t *testing.T) (*SqlxRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSqlxRepository(sqlx.NewDb(db, "postgres"), logger), mock
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, email, created_at, updated_at FROM users`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at", "updated_at"}).
			AddRow(7, "Ann", "ann@example.com", now, now))

	user, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM users`).WithArgs(1).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, pkgErrors.ErrUserNotFound)
}

func TestGetByIDDbError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM users`).WithArgs(1).WillReturnError(sql.ErrConnDone)

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, pkgErrors.ErrDb)
}
