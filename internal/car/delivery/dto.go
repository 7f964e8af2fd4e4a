package delivery

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/car/usecase"
	"github.com/SlavaShagalov/car-rental-api/internal/models"
)

type CreateCarDTO struct {
	Make     string           `json:"make" validate:"required,max=255"`
	Model    string           `json:"model" validate:"required,max=255"`
	Matricul string           `json:"matricul" validate:"required,max=255"`
	Year     int              `json:"year" validate:"required,gte=1000,lte=9999"`
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Status   string           `json:"status" validate:"omitempty,oneof=available rented maintenance"`
	Image    *string          `json:"image" validate:"omitempty,max=2048"`
}

func (dto CreateCarDTO) Params() usecase.CreateParams {
	return usecase.CreateParams{
		Make:     dto.Make,
		Model:    dto.Model,
		Matricul: dto.Matricul,
		Year:     dto.Year,
		Price:    *dto.Price,
		Status:   models.CarStatus(dto.Status),
		Image:    dto.Image,
	}
}

type UpdateCarDTO struct {
	Make     *string          `json:"make" validate:"omitempty,max=255"`
	Model    *string          `json:"model" validate:"omitempty,max=255"`
	Matricul *string          `json:"matricul" validate:"omitempty,max=255"`
	Year     *int             `json:"year" validate:"omitempty,gte=1000,lte=9999"`
	Price    *decimal.Decimal `json:"price"`
	Status   *string          `json:"status" validate:"omitempty,oneof=available rented maintenance"`
	Image    *string          `json:"image" validate:"omitempty,max=2048"`
}

func (dto UpdateCarDTO) Params(id int) usecase.UpdateParams {
	params := usecase.UpdateParams{
		ID:       id,
		Make:     dto.Make,
		Model:    dto.Model,
		Matricul: dto.Matricul,
		Year:     dto.Year,
		Price:    dto.Price,
		Image:    dto.Image,
	}
	if dto.Status != nil {
		status := models.CarStatus(*dto.Status)
		params.Status = &status
	}
	return params
}

type CarDTO struct {
	ID        int       `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Matricul  string    `json:"matricul"`
	Year      int       `json:"year"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCarDTO(car models.Car) CarDTO {
	return CarDTO{
		ID:        car.ID,
		Make:      car.Make,
		Model:     car.Model,
		Matricul:  car.Matricul,
		Year:      car.Year,
		Price:     car.Price.InexactFloat64(),
		Status:    string(car.Status),
		Image:     car.Image,
		CreatedAt: car.CreatedAt,
		UpdatedAt: car.UpdatedAt,
	}
}

func NewCarDTOs(cars []models.Car) []CarDTO {
	dtos := make([]CarDTO, 0, len(cars))
	for _, car := range cars {
		dtos = append(dtos, NewCarDTO(car))
	}
	return dtos
}

type PageDTO struct {
	Data    []CarDTO `json:"data"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
	Total   int      `json:"total"`
}
