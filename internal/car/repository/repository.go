package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/SlavaShagalov/car-rental-api/internal/car/usecase"
	"github.com/SlavaShagalov/car-rental-api/internal/models"
	pkgErrors "github.com/SlavaShagalov/car-rental-api/internal/pkg/errors"
	"github.com/SlavaShagalov/car-rental-api/pkg/sqlxutils"
)

const carColumns = `id, make, model, matricul, year, price, status, image, created_at, updated_at`

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

func (r *SqlxRepository) List(ctx context.Context) ([]models.Car, error) {
	const listCmd = `SELECT ` + carColumns + ` FROM cars ORDER BY id;`

	cars := make([]models.Car, 0)
	err := sqlxutils.Select(ctx, sqlxutils.Conn(ctx, r.db), &cars, listCmd)
	if err != nil {
		return nil, r.dbError("list cars", err)
	}

	return cars, nil
}

func (r *SqlxRepository) ListPage(ctx context.Context, limit, offset int) ([]models.Car, error) {
	const listPageCmd = `SELECT ` + carColumns + ` FROM cars ORDER BY id LIMIT $1 OFFSET $2;`

	cars := make([]models.Car, 0, limit)
	err := sqlxutils.Select(ctx, sqlxutils.Conn(ctx, r.db), &cars, listPageCmd, limit, offset)
	if err != nil {
		return nil, r.dbError("list cars page", err)
	}

	return cars, nil
}

func (r *SqlxRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &total, `SELECT count(*) FROM cars;`)
	if err != nil {
		return 0, r.dbError("count cars", err)
	}

	return total, nil
}

func (r *SqlxRepository) Get(ctx context.Context, id int) (models.Car, error) {
	const getCmd = `SELECT ` + carColumns + ` FROM cars WHERE id = $1;`

	var car models.Car
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &car, getCmd, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Car{}, pkgErrors.ErrCarNotFound
		}
		return models.Car{}, r.dbError("get car", err)
	}

	return car, nil
}

func (r *SqlxRepository) Create(ctx context.Context, params usecase.CreateParams) (models.Car, error) {
	const createCmd = `
	INSERT INTO cars (make, model, matricul, year, price, status, image)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + carColumns + `;`

	var car models.Car
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &car, createCmd,
		params.Make, params.Model, params.Matricul, params.Year, params.Price, params.Status, params.Image)
	if err != nil {
		return models.Car{}, r.dbError("create car", err)
	}

	return car, nil
}

func (r *SqlxRepository) Update(ctx context.Context, params usecase.UpdateParams) (models.Car, error) {
	const updateCmd = `
	UPDATE cars
	SET make       = COALESCE($2, make),
	    model      = COALESCE($3, model),
	    matricul   = COALESCE($4, matricul),
	    year       = COALESCE($5, year),
	    price      = COALESCE($6, price),
	    status     = COALESCE($7, status),
	    image      = COALESCE($8, image),
	    updated_at = now()
	WHERE id = $1
	RETURNING ` + carColumns + `;`

	var car models.Car
	err := sqlxutils.Get(ctx, sqlxutils.Conn(ctx, r.db), &car, updateCmd,
		params.ID, params.Make, params.Model, params.Matricul, params.Year, params.Price, params.Status, params.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Car{}, pkgErrors.ErrCarNotFound
		}
		return models.Car{}, r.dbError("update car", err)
	}

	return car, nil
}

func (r *SqlxRepository) Delete(ctx context.Context, id int) error {
	const deleteCmd = `DELETE FROM cars WHERE id = $1;`

	res, err := sqlxutils.Conn(ctx, r.db).ExecContext(ctx, deleteCmd, id)
	if err != nil {
		if _, ok := sqlxutils.ForeignKeyViolation(err); ok {
			return pkgErrors.ErrCarHasRentals
		}
		return r.dbError("delete car", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return r.dbError("delete car", err)
	}
	if affected == 0 {
		return pkgErrors.ErrCarNotFound
	}

	return nil
}

func (r *SqlxRepository) dbError(op string, err error) error {
	r.logger.Error(op, slog.String("error", err.Error()))
	return errors.Wrap(pkgErrors.ErrDb, op+": "+err.Error())
}
