package models

import "time"

// Plan is the installment plan chosen at booking time.
type Plan string

const (
	PlanSingle  Plan = "single"
	PlanTwoPart Plan = "two_part"
)

func (p Plan) Valid() bool {
	return p == PlanSingle || p == PlanTwoPart
}

// Status is the reservation payment status. Transitions are monotonic
// (pending -> partial -> paid) except cancellation, which is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Reservation is the single source of truth for a booking intent and its
// payment progress.
type Reservation struct {
	ID     string  `json:"id"`
	Client Client  `json:"client"`
	Item   ItemRef `json:"item"`
	Count  int     `json:"count"`

	TotalDue   int64  `json:"total_due"`
	AmountPaid int64  `json:"amount_paid"`
	Plan       Plan   `json:"plan"`
	Status     Status `json:"status"`

	// CorrelationID is handed to the gateway at initiation and comes back
	// on every callback; it resolves the originating reservation.
	CorrelationID string `json:"correlation_id"`

	CapacityCommitted bool `json:"capacity_committed"`
	CapacityReleased  bool `json:"capacity_released"`

	// ProcessedTxns holds every gateway transaction id already applied to
	// this reservation. Checked before any mutation.
	ProcessedTxns map[string]bool `json:"processed_txns"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DueNow is the amount the client is asked to pay next: the first tranche
// of a two-part plan while nothing has been paid, the outstanding balance
// otherwise. Tranche rounding always favors the first payment.
func (r *Reservation) DueNow() int64 {
	if r.Plan == PlanTwoPart && r.AmountPaid == 0 {
		return (r.TotalDue + 1) / 2
	}
	return r.TotalDue - r.AmountPaid
}

// Outstanding is the amount still owed.
func (r *Reservation) Outstanding() int64 {
	return r.TotalDue - r.AmountPaid
}

// Clone returns a deep copy so stores never alias caller state.
func (r *Reservation) Clone() *Reservation {
	cp := *r
	cp.ProcessedTxns = make(map[string]bool, len(r.ProcessedTxns))
	for txn := range r.ProcessedTxns {
		cp.ProcessedTxns[txn] = true
	}
	return &cp
}

// PaymentEvent is an externally delivered payment confirmation, either a
// webhook callback or the result of a verify poll. Delivery is at least
// once; TransactionID is the dedup key.
type PaymentEvent struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	CorrelationID string `json:"correlation_id"`
}

// PaymentInstructions is what the frontend needs to open the gateway
// payment widget.
type PaymentInstructions struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	Data      string `json:"data"`
	Sandbox   bool   `json:"sandbox"`
	PublicKey string `json:"public_key"`
}

// Payment is the record kept for every applied payment event.
type Payment struct {
	ID            string    `json:"id"`
	Reference     string    `json:"reference"`
	ReservationID string    `json:"reservation_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReservationStats is the admin dashboard aggregate.
type ReservationStats struct {
	Total     int   `json:"total"`
	Paid      int   `json:"paid"`
	Pending   int   `json:"pending"`
	Cancelled int   `json:"cancelled"`
	Revenue   int64 `json:"revenue"`
	Collected int64 `json:"collected"`
}

// PaymentStats aggregates the payment ledger.
type PaymentStats struct {
	TotalPayments int   `json:"total_payments"`
	TotalAmount   int64 `json:"total_amount"`
}
