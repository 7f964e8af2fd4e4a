package delivery

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	"github.com/SlavaShagalov/car-rental-api/internal/rental/usecase"
)

// CreateRentalDTO lists the accepted fields. total_price and status are computed by the server.
type CreateRentalDTO struct {
	UserID    int    `json:"user_id" validate:"required,gt=0"`
	CarID     int    `json:"car_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"required,date"`
}

func (dto CreateRentalDTO) Params() usecase.CreateParams {
	start, _ := models.ParseDate(dto.StartDate)
	end, _ := models.ParseDate(dto.EndDate)

	return usecase.CreateParams{
		UserID:    dto.UserID,
		CarID:     dto.CarID,
		StartDate: start,
		EndDate:   end,
	}
}

type UpdateRentalDTO struct {
	UserID     *int             `json:"user_id" validate:"omitempty,gt=0"`
	CarID      *int             `json:"car_id" validate:"omitempty,gt=0"`
	StartDate  *string          `json:"start_date" validate:"omitempty,date"`
	EndDate    *string          `json:"end_date" validate:"omitempty,date"`
	TotalPrice *decimal.Decimal `json:"total_price"`
	Status     *string          `json:"status" validate:"omitempty,oneof=pending active completed canceled"`
}

func (dto UpdateRentalDTO) Params(id int) usecase.UpdateParams {
	params := usecase.UpdateParams{
		ID:         id,
		UserID:     dto.UserID,
		CarID:      dto.CarID,
		TotalPrice: dto.TotalPrice,
	}
	if dto.StartDate != nil {
		start, _ := models.ParseDate(*dto.StartDate)
		params.StartDate = &start
	}
	if dto.EndDate != nil {
		end, _ := models.ParseDate(*dto.EndDate)
		params.EndDate = &end
	}
	if dto.Status != nil {
		status := models.RentalStatus(*dto.Status)
		params.Status = &status
	}
	return params
}

type CheckoutDTO struct {
	CheckoutURL string `json:"checkout_url"`
}

type RentalDTO struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	CarID      int       `json:"car_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewRentalDTO(rental models.Rental) RentalDTO {
	return RentalDTO{
		ID:         rental.ID,
		UserID:     rental.UserID,
		CarID:      rental.CarID,
		StartDate:  models.FormatDate(rental.StartDate),
		EndDate:    models.FormatDate(rental.EndDate),
		TotalPrice: rental.TotalPrice.InexactFloat64(),
		Status:     string(rental.Status),
		CreatedAt:  rental.CreatedAt,
		UpdatedAt:  rental.UpdatedAt,
	}
}

func NewRentalDTOs(rentals []models.Rental) []RentalDTO {
	dtos := make([]RentalDTO, 0, len(rentals))
	for _, rental := range rentals {
		dtos = append(dtos, NewRentalDTO(rental))
	}
	return dtos
}
