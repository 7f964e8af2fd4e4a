package repository

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/SlavaShagalov/car-rental-api/pkg/journal"
	"github.com/SlavaShagalov/car-rental-api/pkg/sqlxutils"
)

type SqlxRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewSqlxRepository(db *sqlx.DB, logger *slog.Logger) *SqlxRepository {
	return &SqlxRepository{
		db:     db,
		logger: logger,
	}
}

func (r *SqlxRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveEntry stores an entry once. Redelivered keys are ignored.
func (r *SqlxRepository) SaveEntry(ctx context.Context, entry journal.Entry) error {
	const saveCmd = `
	INSERT INTO journal_entries (key, kind, subject_id, payload, created_at)
	VALUES ($1, $2, NULLIF($3, 0), $4, $5)
	ON CONFLICT (key) DO NOTHING;`

	_, err := sqlxutils.Conn(ctx, r.db).ExecContext(ctx, saveCmd,
		entry.Key, entry.Kind, entry.SubjectID, []byte(entry.Payload), entry.CreatedAt)
	if err != nil {
		r.logger.Error("save journal entry", slog.String("key", entry.Key), slog.String("error", err.Error()))
		return errors.Wrap(err, "save journal entry")
	}

	return nil
}
