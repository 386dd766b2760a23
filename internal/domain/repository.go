package domain

import (
	"context"
	"errors"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepository persists reservations. Implementations must not
// alias the stored record with the caller's copy.
type ReservationRepository interface {
	Save(ctx context.Context, r *models.Reservation) error
	Get(ctx context.Context, id string) (*models.Reservation, error)
	List(ctx context.Context) ([]*models.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// PaymentRepository is an append-only ledger of applied payments.
type PaymentRepository interface {
	Append(ctx context.Context, p *models.Payment) error
	List(ctx context.Context) ([]*models.Payment, error)
}
