package repository

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
)

var columns = []string{"id", "user_id", "car_id", "start_date", "end_date", "total_price", "status", "created_at", "updated_at"}

func newRepo(t *testing.T) (*SqlxRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSqlxRepository(sqlx.NewDb(db, "postgres"), logger), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepo(t)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO rentals`).
		WithArgs(1, 2, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "pending").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(5, 1, 2, start, end, "120.00", "pending", now, now))

	rental, err := repo.Create(context.Background(), models.Rental{
		UserID:     1,
		CarID:      2,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: decimal.NewFromInt(120),
		Status:     models.RentalPending,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, rental.ID)
	assert.True(t, rental.TotalPrice.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, models.RentalPending, rental.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForeignKeyViolation(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: userConstraint, want: pkgErrors.ErrUserNotFound},
		{constraint: carConstraint, want: pkgErrors.ErrCarNotFound},
		{constraint: "other_fkey", want: pkgErrors.ErrDb},
	}

	for _, test := range tests {
		t.Run(test.constraint, func(t *testing.T) {
			repo, mock := newRepo(t)

			mock.ExpectQuery(`INSERT INTO rentals`).
				WillReturnError(&pq.Error{Code: "23503", Constraint: test.constraint})

			_, err := repo.Create(context.Background(), models.Rental{UserID: 1, CarID: 2})
			assert.ErrorIs(t, err, test.want)
		})
	}
}

func TestGetForUpdateNotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = $1 FOR UPDATE`)).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetForUpdate(context.Background(), 9)
	assert.ErrorIs(t, err, pkgErrors.ErrRentalNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE rentals`).
		WithArgs(5, "active").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(5, 1, 2, now, now.Add(24*time.Hour), "40.00", "active", now, now))

	rental, err := repo.UpdateStatus(context.Background(), 5, models.RentalActive)

	require.NoError(t, err)
	assert.Equal(t, models.RentalActive, rental.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`DELETE FROM rentals`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 3)
	assert.ErrorIs(t, err, pkgErrors.ErrRentalNotFound)
}

func TestListByUserEmpty(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE user_id = $1`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(columns))

	rentals, err := repo.ListByUser(context.Background(), 4)

	require.NoError(t, err)
	assert.NotNil(t, rentals)
	assert.Empty(t, rentals)
}
