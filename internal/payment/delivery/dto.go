package delivery

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SlavaShagalov/car-rental-api/internal/models"
	"github.com/SlavaShagalov/car-rental-api/internal/payment/usecase"
)

type CreatePaymentDTO struct {
	RentalID      int              `json:"rental_id" validate:"required,gt=0"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=credit_card stripe cash"`
	Status        string           `json:"status" validate:"required,oneof=pending completed failed canceled"`
}

func (dto CreatePaymentDTO) Params() usecase.CreateParams {
	return usecase.CreateParams{
		RentalID:      dto.RentalID,
		Amount:        *dto.Amount,
		PaymentMethod: models.PaymentMethod(dto.PaymentMethod),
		Status:        models.PaymentStatus(dto.Status),
	}
}

type UpdatePaymentDTO struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed canceled"`
}

type PaymentDTO struct {
	ID            int       `json:"id"`
	RentalID      int       `json:"rental_id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	SessionID     *string   `json:"session_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewPaymentDTO(payment models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            payment.ID,
		RentalID:      payment.RentalID,
		Amount:        payment.Amount.InexactFloat64(),
		PaymentMethod: string(payment.PaymentMethod),
		Status:        string(payment.Status),
		SessionID:     payment.SessionID,
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	}
}

func NewPaymentDTOs(payments []models.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(payments))
	for _, payment := range payments {
		dtos = append(dtos, NewPaymentDTO(payment))
	}
	return dtos
}
