package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/pkg/sqlxutils"
)

const rentalColumns = `id, user_id, car_id, start_date, end_date, total_price, status, created_at, updated_at`

const (
	userConstraint = "rentals_user_id_fkey"
	carConstraint  = "rentals_car_id_fkey"
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

func (r *SqlxRepository) Create(ctx context.Context, rental models.Rental) (models.Rental, error) {
	const createCmd = `
	INSERT INTO rentals (user_id, car_id, start_date, end_date, total_price, status)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + rentalColumns + `;`

	var created models.Rental
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &created, createCmd,
		rental.UserID, rental.CarID, rental.StartDate, rental.EndDate, rental.TotalPrice, rental.Status)
	if err != nil {
		return models.Rental{}, r.writeError("create rental", err)
	}

	return created, nil
}

func (r *SqlxRepository) Get(ctx context.Context, id int) (models.Rental, error) {
	const getCmd = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1;`

	return r.get(ctx, "get rental", getCmd, id)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *SqlxRepository) GetForUpdate(ctx context.Context, id int) (models.Rental, error) {
	const getForUpdateCmd = `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 FOR UPDATE;`

	return r.get(ctx, "lock rental", getForUpdateCmd, id)
}

func (r *SqlxRepository) get(ctx context.Context, op, query string, id int) (models.Rental, error) {
	var rental models.Rental
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &rental, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Rental{}, pkgErrors.ErrRentalNotFound
		}
		return models.Rental{}, r.dbError(op, err)
	}

	return rental, nil
}

func (r *SqlxRepository) Update(ctx context.Context, rental models.Rental) (models.Rental, error) {
	const updateCmd = `
	UPDATE rentals
	SET user_id     = $2,
	    car_id      = $3,
	    start_date  = $4,
	    end_date    = $5,
	    total_price = $6,
	    status      = $7,
	    updated_at  = now()
	WHERE id = $1
	RETURNING ` + rentalColumns + `;`

	var updated models.Rental
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &updated, updateCmd,
		rental.ID, rental.UserID, rental.CarID, rental.StartDate, rental.EndDate, rental.TotalPrice, rental.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Rental{}, pkgErrors.ErrRentalNotFound
		}
		return models.Rental{}, r.writeError("update rental", err)
	}

	return updated, nil
}

func (r *SqlxRepository) UpdateStatus(ctx context.Context, id int, status models.RentalStatus) (models.Rental, error) {
	const updateStatusCmd = `
	UPDATE rentals
	SET status = $2, updated_at = now()
	WHERE id = $1
	RETURNING ` + rentalColumns + `;`

	var updated models.Rental
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &updated, updateStatusCmd, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Rental{}, pkgErrors.ErrRentalNotFound
		}
		return models.Rental{}, r.dbError("update rental status", err)
	}

	return updated, nil
}

func (r *SqlxRepository) Delete(ctx context.Context, id int) error {
	const deleteCmd = `DELETE FROM rentals WHERE id = $1;`

	res, err := sqlxutils.Conn(ctx, r.db).ExecContext(ctx, deleteCmd, id)
	if err != nil {
		return r.dbError("delete rental", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return r.dbError("delete rental", err)
	}
	if affected == 0 {
		return pkgErrors.ErrRentalNotFound
	}

	return nil
}

func (r *SqlxRepository) List(ctx context.Context) ([]models.Rental, error) {
	const listCmd = `SELECT ` + rentalColumns + ` FROM rentals ORDER BY id;`

	return r.list(ctx, "list rentals", listCmd)
}

func (r *SqlxRepository) ListByUser(ctx context.Context, userID int) ([]models.Rental, error) {
	const listByUserCmd = `SELECT ` + rentalColumns + ` FROM rentals WHERE user_id = $1 ORDER BY id;`

	return r.list(ctx, "list user rentals", listByUserCmd, userID)
}

func (r *SqlxRepository) ListByCar(ctx context.Context, carID int) ([]models.Rental, error) {
	const listByCarCmd = `SELECT ` + rentalColumns + ` FROM rentals WHERE car_id = $1 ORDER BY id;`

	return r.list(ctx, "list car rentals", listByCarCmd, carID)
}

func (r *SqlxRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Rental, error) {
	rentals := make([]models.Rental, 0)
	err := sqlxutils.Select(ctx, sqlxutils.Conn(ctx, r.db), &rentals, query, args...)
	if err != nil {
		return nil, r.dbError(op, err)
	}

	return rentals, nil
}

// writeError maps FK violations raced past the use-case checks to the missing entity.
func (r *SqlxRepository) writeError(op string, err error) error {
	if constraint, ok := sqlxutils.ForeignKeyViolation(err); ok {
		switch constraint {
		case userConstraint:
			return pkgErrors.ErrUserNotFound
		case carConstraint:
			return pkgErrors.ErrCarNotFound
		}
	}
	return r.dbError(op, err)
}

func (r *SqlxRepository) dbError(op string, err error) error {
	r.logger.Error(op, slog.String("error", err.Error()))
	return errors.Wrap(pkgErrors.ErrDb, op+": "+err.Error())
}
