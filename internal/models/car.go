package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CarStatus string

const (
	CarAvailable   CarStatus = "available"
	CarRented      CarStatus = "rented"
	CarMaintenance CarStatus = "maintenance"
)

type Car struct {
	ID        int             `db:"id"`
	Make      string          `db:"make"`
	Model     string          `db:"model"`
	Matricul  string          `db:"matricul"`
	Year      int             `db:"year"`
	Price     decimal.Decimal `db:"price"` // per day
	Status    CarStatus       `db:"status"`
	Image     *string         `db:"image"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
