package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/pkg/sqlxutils"
)

const paymentColumns = `id, rental_id, amount, payment_method, status, session_id, created_at, updated_at`

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

func (r *SqlxRepository) Create(ctx context.Context, payment models.Payment) (models.Payment, error) {
	const createCmd = `
	INSERT INTO payments (rental_id, amount, payment_method, status, session_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + paymentColumns + `;`

	var created models.Payment
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &created, createCmd,
		payment.RentalID, payment.Amount, payment.PaymentMethod, payment.Status, payment.SessionID)
	if err != nil {
		if _, ok := sqlxutils.ForeignKeyViolation(err); ok {
			return models.Payment{}, pkgErrors.ErrRentalNotFound
		}
		return models.Payment{}, r.dbError("create payment", err)
	}

	return created, nil
}

func (r *SqlxRepository) Get(ctx context.Context, id int) (models.Payment, error) {
	const getCmd = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1;`

	return r.get(ctx, "get payment", getCmd, id)
}

func (r *SqlxRepository) GetForUpdate(ctx context.Context, id int) (models.Payment, error) {
	const getForUpdateCmd = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE;`

	return r.get(ctx, "lock payment", getForUpdateCmd, id)
}

func (r *SqlxRepository) GetBySession(ctx context.Context, sessionID string) (models.Payment, error) {
	const getBySessionCmd = `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = $1;`

	return r.get(ctx, "get payment by session", getBySessionCmd, sessionID)
}

// FindUnattached returns the latest pending payment of a rental that has no checkout session yet.
func (r *SqlxRepository) FindUnattached(ctx context.Context, rentalID int) (models.Payment, error) {
	const findUnattachedCmd = `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE rental_id = $1 AND status = 'pending' AND session_id IS NULL
	ORDER BY id DESC
	LIMIT 1;`

	return r.get(ctx, "find unattached payment", findUnattachedCmd, rentalID)
}

// FindPendingForUpdate locks the latest pending payment of a rental.
func (r *SqlxRepository) FindPendingForUpdate(ctx context.Context, rentalID int) (models.Payment, error) {
	const findPendingCmd = `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE rental_id = $1 AND status = 'pending'
	ORDER BY id DESC
	LIMIT 1
	FOR UPDATE;`

	return r.get(ctx, "lock pending payment", findPendingCmd, rentalID)
}

func (r *SqlxRepository) get(ctx context.Context, op, query string, arg interface{}) (models.Payment, error) {
	var payment models.Payment
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &payment, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, pkgErrors.ErrPaymentNotFound
		}
		return models.Payment{}, r.dbError(op, err)
	}

	return payment, nil
}

// SumCounted sums pending and completed payments of a rental.
func (r *SqlxRepository) SumCounted(ctx context.Context, rentalID int) (decimal.Decimal, error) {
	const sumCmd = `
	SELECT COALESCE(SUM(amount), 0)
	FROM payments
	WHERE rental_id = $1 AND status IN ('pending', 'completed');`

	var sum decimal.Decimal
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &sum, sumCmd, rentalID)
	if err != nil {
		return decimal.Zero, r.dbError("sum payments", err)
	}

	return sum, nil
}

func (r *SqlxRepository) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) (models.Payment, error) {
	const updateStatusCmd = `
	UPDATE payments
	SET status = $2, updated_at = now()
	WHERE id = $1
	RETURNING ` + paymentColumns + `;`

	var updated models.Payment
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &updated, updateStatusCmd, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, pkgErrors.ErrPaymentNotFound
		}
		return models.Payment{}, r.dbError("update payment status", err)
	}

	return updated, nil
}

// AttachSession binds sessionID to a pending payment still bound to previous.
// An empty previous means no session. ErrPaymentNotFound is returned when
// another checkout got there first.
func (r *SqlxRepository) AttachSession(ctx context.Context, id int, previous, sessionID string) error {
	const attachCmd = `
	UPDATE payments
	SET session_id = $3, updated_at = now()
	WHERE id = $1 AND status = 'pending' AND session_id IS NOT DISTINCT FROM $2;`

	prev := sql.NullString{String: previous, Valid: previous != ""}
	res, err := sqlxutils.Conn(ctx, r.db).ExecContext(ctx, attachCmd, id, prev, sessionID)
	if err != nil {
		return r.dbError("attach checkout session", err)
	}

	return r.mustAffect(res, "attach checkout session")
}

func (r *SqlxRepository) Delete(ctx context.Context, id int) error {
	const deleteCmd = `DELETE FROM payments WHERE id = $1;`

	res, err := sqlxutils.Conn(ctx, r.db).ExecContext(ctx, deleteCmd, id)
	if err != nil {
		return r.dbError("delete payment", err)
	}

	return r.mustAffect(res, "delete payment")
}

func (r *SqlxRepository) DeleteByRental(ctx context.Context, rentalID int) (int64, error) {
	const deleteByRentalCmd = `DELETE FROM payments WHERE rental_id = $1;`

	res, err := sqlxutils.Conn(ctx, r.db).ExecContext(ctx, deleteByRentalCmd, rentalID)
	if err != nil {
		return 0, r.dbError("delete rental payments", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, r.dbError("delete rental payments", err)
	}

	return affected, nil
}

func (r *SqlxRepository) List(ctx context.Context) ([]models.Payment, error) {
	const listCmd = `SELECT ` + paymentColumns + ` FROM payments ORDER BY id;`

	return r.list(ctx, "list payments", listCmd)
}

func (r *SqlxRepository) ListByRental(ctx context.Context, rentalID int) ([]models.Payment, error) {
	const listByRentalCmd = `SELECT ` + paymentColumns + ` FROM payments WHERE rental_id = $1 ORDER BY id;`

	return r.list(ctx, "list rental payments", listByRentalCmd, rentalID)
}

func (r *SqlxRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Payment, error) {
	payments := make([]models.Payment, 0)
	err := sqlxutils.Select(ctx, sqlxutils.Conn(ctx, r.db), &payments, query, args...)
	if err != nil {
		return nil, r.dbError(op, err)
	}

	return payments, nil
}

func (r *SqlxRepository) mustAffect(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return r.dbError(op, err)
	}
	if affected == 0 {
		return pkgErrors.ErrPaymentNotFound
	}
	return nil
}

func (r *SqlxRepository) dbError(op string, err error) error {
	r.logger.Error(op, slog.String("error", err.Error()))
	return errors.Wrap(pkgErrors.ErrDb, op+": "+err.Error())
}
