package sqlxutils

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestWithinTx_Commit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE rentals").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTxManager(db).WithinTx(context.Background(), func(ctx context.Context) error {
		_, ok := Conn(ctx, db).(*sqlx.Tx)
		require.True(t, ok)

		_, err := Conn(ctx, db).ExecContext(ctx, "UPDATE rentals SET status = 'active'")
		return err
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollbackKeepsCause(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	cause := errors.New("boom")
	err := NewTxManager(db).WithinTx(context.Background(), func(ctx context.Context) error {
		return cause
	})

	require.ErrorIs(t, err, cause)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_Nested(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	m := NewTxManager(db)
	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		outer := Conn(ctx, db)
		return m.WithinTx(ctx, func(ctx context.Context) error {
			require.Same(t, outer, Conn(ctx, db))
			return nil
		})
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_NoTx(t *testing.T) {
	db, _ := newMock(t)
	require.Equal(t, Executor(db), Conn(context.Background(), db))
}
