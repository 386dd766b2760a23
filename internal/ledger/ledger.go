// Package ledger owns the reservation state machine: booking creation,
// payment progress, cancellation and the commit-once / release-once
// coupling with capacity accounting.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GBOHOUILI/even-travel-backend/internal/capacity"
	"github.com/GBOHOUILI/even-travel-backend/internal/catalog"
	"github.com/GBOHOUILI/even-travel-backend/internal/domain"
	"github.com/GBOHOUILI/even-travel-backend/internal/metrics"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

var (
	ErrInvalidPlan         = errors.New("invalid installment plan")
	ErrInvalidInput        = errors.New("invalid booking request")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrReservationNotFound = domain.ErrReservationNotFound
)

// CreateRequest is a booking request from the API surface.
type CreateRequest struct {
	Client models.Client  `json:"client"`
	Item   models.ItemRef `json:"item"`
	Count  int            `json:"count"`
	Plan   models.Plan    `json:"plan"`
}

func (req CreateRequest) validate() error {
	if req.Count < 1 {
		return fmt.Errorf("%w: count must be at least 1", ErrInvalidInput)
	}
	if !req.Plan.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, req.Plan)
	}
	if req.Client.Email == "" || req.Client.Phone == "" {
		return fmt.Errorf("%w: client email and phone are required", ErrInvalidInput)
	}
	if req.Client.FirstName == "" || req.Client.LastName == "" {
		return fmt.Errorf("%w: client name is required", ErrInvalidInput)
	}
	return nil
}

// ApplyResult reports what a payment application did.
type ApplyResult struct {
	Reservation *models.Reservation
	Applied     int64
	Duplicate   bool
}

// Ledger serializes all state transitions per reservation. Capacity is
// reserved at creation, committed exactly once on the first successful
// payment and released exactly once on cancellation or deletion.
type Ledger struct {
	store    domain.ReservationRepository
	payments domain.PaymentRepository
	catalog  *catalog.Registry
	capacity *capacity.Accountant
	metrics  *metrics.Metrics
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store domain.ReservationRepository, payments domain.PaymentRepository,
	cat *catalog.Registry, acct *capacity.Accountant, m *metrics.Metrics, log *zap.Logger) *Ledger {
	return &Ledger{
		store:    store,
		payments: payments,
		catalog:  cat,
		capacity: acct,
		metrics:  m,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock returns the mutex serializing transitions of one reservation.
func (l *Ledger) lock(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mu, ok := l.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[id] = mu
	}
	return mu
}

// Create validates the request, takes a capacity hold and persists a
// pending reservation. Every error path after a successful TryReserve
// gives the hold back.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	item, err := l.catalog.Resolve(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	l.capacity.Track(item.ID, item.TotalCapacity, item.RemainingCapacity)

	if err := l.capacity.TryReserve(item.ID, req.Count); err != nil {
		if errors.Is(err, capacity.ErrInsufficientCapacity) {
			l.metrics.ReservationsRejected.Inc()
		}
		return nil, err
	}

	now := time.Now().UTC()
	res := &models.Reservation{
		ID:            uuid.NewString(),
		Client:        req.Client,
		Item:          req.Item,
		Count:         req.Count,
		TotalDue:      item.UnitPrice * int64(req.Count),
		Plan:          req.Plan,
		Status:        models.StatusPending,
		ProcessedTxns: make(map[string]bool),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	res.CorrelationID = res.ID

	if err := l.store.Save(ctx, res); err != nil {
		if relErr := l.capacity.Release(item.ID, req.Count, false); relErr != nil {
			l.log.Error("failed to release hold after aborted creation",
				zap.String("item", item.ID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("persist reservation: %w", err)
	}

	l.metrics.ReservationsCreated.Inc()
	l.log.Info("reservation created",
		zap.String("reservation", res.ID),
		zap.String("item", res.Item.String()),
		zap.Int("count", res.Count),
		zap.Int64("total_due", res.TotalDue))
	return res, nil
}

// ApplyPayment applies an externally confirmed amount to a reservation.
// The transaction id is checked against the processed set before any
// write; replays and payments against terminal reservations are
// acknowledged as no-ops. The first transition out of pending commits
// the capacity hold exactly once.
func (l *Ledger) ApplyPayment(ctx context.Context, reservationID, txnID string, amount int64) (*ApplyResult, error) {
	mu := l.lock(reservationID)
	mu.Lock()
	defer mu.Unlock()

	res, err := l.store.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	if res.ProcessedTxns[txnID] {
		l.metrics.PaymentsDuplicate.Inc()
		l.log.Info("duplicate payment event ignored",
			zap.String("reservation", reservationID), zap.String("transaction", txnID))
		return &ApplyResult{Reservation: res, Duplicate: true}, nil
	}

	if res.Status == models.StatusPaid || res.Status == models.StatusCancelled {
		l.log.Warn("payment event for settled reservation ignored",
			zap.String("reservation", reservationID),
			zap.String("status", string(res.Status)),
			zap.String("transaction", txnID))
		return &ApplyResult{Reservation: res}, nil
	}

	applied := amount
	if outstanding := res.Outstanding(); applied > outstanding {
		applied = outstanding
	}
	if applied <= 0 {
		l.log.Warn("payment event with no collectable amount ignored",
			zap.String("reservation", reservationID),
			zap.String("transaction", txnID),
			zap.Int64("amount", amount))
		return &ApplyResult{Reservation: res}, nil
	}

	needCommit := !res.CapacityCommitted
	if needCommit {
		if err := l.capacity.Commit(res.Item.ID, res.Count); err != nil {
			return nil, err
		}
	}

	res.ProcessedTxns[txnID] = true
	res.AmountPaid += applied
	if res.AmountPaid >= res.TotalDue {
		res.Status = models.StatusPaid
	} else {
		res.Status = models.StatusPartial
	}
	if needCommit {
		res.CapacityCommitted = true
	}
	res.UpdatedAt = time.Now().UTC()

	if err := l.store.Save(ctx, res); err != nil {
		if needCommit {
			l.rollbackCommit(res.Item.ID, res.Count)
		}
		return nil, fmt.Errorf("persist payment application: %w", err)
	}

	l.recordPayment(ctx, res, txnID, applied)

	l.metrics.PaymentsApplied.Inc()
	l.metrics.AmountCollected.Add(float64(applied))
	if needCommit {
		l.metrics.CapacityCommitted.WithLabelValues(res.Item.ID).Add(float64(res.Count))
	}
	l.log.Info("payment applied",
		zap.String("reservation", res.ID),
		zap.String("transaction", txnID),
		zap.Int64("applied", applied),
		zap.String("status", string(res.Status)))
	return &ApplyResult{Reservation: res, Applied: applied}, nil
}

// Cancel moves a reservation to the terminal cancelled state, releasing
// its held or committed capacity exactly once. Cancelling an already
// cancelled reservation is a no-op.
func (l *Ledger) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	mu := l.lock(id)
	mu.Lock()
	defer mu.Unlock()

	res, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == models.StatusCancelled {
		return res, nil
	}
	return l.cancelLocked(ctx, res)
}

func (l *Ledger) cancelLocked(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	wasCommitted := res.CapacityCommitted
	released := false
	if !res.CapacityReleased {
		if err := l.capacity.Release(res.Item.ID, res.Count, wasCommitted); err != nil {
			return nil, err
		}
		released = true
	}

	res.Status = models.StatusCancelled
	res.CapacityReleased = true
	res.UpdatedAt = time.Now().UTC()

	if err := l.store.Save(ctx, res); err != nil {
		if released {
			l.restoreUnits(res.Item.ID, res.Count, wasCommitted)
		}
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}

	if released {
		l.metrics.CapacityReleased.WithLabelValues(res.Item.ID).Add(float64(res.Count))
	}
	l.metrics.ReservationsCancelled.Inc()
	l.log.Info("reservation cancelled",
		zap.String("reservation", res.ID),
		zap.Bool("capacity_returned", released))
	return res, nil
}

// UpdateStatus is the admin override. It runs through the same
// transition code as payments and cancellation, so the commit-once and
// release-once guards apply; it is not an unconstrained field write.
func (l *Ledger) UpdateStatus(ctx context.Context, id string, status models.Status) (*models.Reservation, error) {
	switch status {
	case models.StatusCancelled:
		return l.Cancel(ctx, id)
	case models.StatusPartial, models.StatusPaid:
		// handled below
	default:
		return nil, fmt.Errorf("%w: cannot move a reservation to %q", ErrInvalidTransition, status)
	}

	mu := l.lock(id)
	mu.Lock()
	defer mu.Unlock()

	res, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == models.StatusCancelled {
		return nil, fmt.Errorf("%w: reservation %s is cancelled", ErrInvalidTransition, id)
	}
	if status == models.StatusPartial && res.Status == models.StatusPaid {
		return nil, fmt.Errorf("%w: reservation %s is already paid", ErrInvalidTransition, id)
	}

	needCommit := !res.CapacityCommitted
	if needCommit {
		if err := l.capacity.Commit(res.Item.ID, res.Count); err != nil {
			return nil, err
		}
		res.CapacityCommitted = true
	}
	if status == models.StatusPaid {
		// settled out of band; align the amount with the status
		res.AmountPaid = res.TotalDue
	}
	res.Status = status
	res.UpdatedAt = time.Now().UTC()

	if err := l.store.Save(ctx, res); err != nil {
		if needCommit {
			l.rollbackCommit(res.Item.ID, res.Count)
		}
		return nil, fmt.Errorf("persist status override: %w", err)
	}

	if needCommit {
		l.metrics.CapacityCommitted.WithLabelValues(res.Item.ID).Add(float64(res.Count))
	}
	l.log.Info("reservation status overridden",
		zap.String("reservation", res.ID), zap.String("status", string(status)))
	return res, nil
}

// Delete removes a reservation, releasing its capacity first. A failed
// store delete puts the units back where they were, so a retry releases
// them exactly once.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	mu := l.lock(id)
	mu.Lock()
	defer mu.Unlock()

	res, err := l.store.Get(ctx, id)
	if err != nil {
		return err
	}
	wasCommitted := res.CapacityCommitted
	released := false
	if !res.CapacityReleased {
		if err := l.capacity.Release(res.Item.ID, res.Count, wasCommitted); err != nil {
			return err
		}
		released = true
	}
	if err := l.store.Delete(ctx, id); err != nil {
		if released {
			l.restoreUnits(res.Item.ID, res.Count, wasCommitted)
		}
		return err
	}
	if released {
		l.metrics.CapacityReleased.WithLabelValues(res.Item.ID).Add(float64(res.Count))
	}
	l.log.Info("reservation deleted", zap.String("reservation", id))
	return nil
}

// Get fetches a reservation.
func (l *Ledger) Get(ctx context.Context, id string) (*models.Reservation, error) {
	return l.store.Get(ctx, id)
}

// List returns all reservations, newest first.
func (l *Ledger) List(ctx context.Context) ([]*models.Reservation, error) {
	return l.store.List(ctx)
}

// Stats aggregates the reservation ledger for the admin dashboard.
func (l *Ledger) Stats(ctx context.Context) (*models.ReservationStats, error) {
	reservations, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.ReservationStats{}
	for _, res := range reservations {
		stats.Total++
		stats.Collected += res.AmountPaid
		switch res.Status {
		case models.StatusPaid:
			stats.Paid++
			stats.Revenue += res.TotalDue
		case models.StatusPending, models.StatusPartial:
			stats.Pending++
		case models.StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// Payments lists the payment ledger.
func (l *Ledger) Payments(ctx context.Context) ([]*models.Payment, error) {
	return l.payments.List(ctx)
}

// PaymentStats aggregates the payment ledger.
func (l *Ledger) PaymentStats(ctx context.Context) (*models.PaymentStats, error) {
	payments, err := l.payments.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.PaymentStats{}
	for _, p := range payments {
		stats.TotalPayments++
		stats.TotalAmount += p.Amount
	}
	return stats, nil
}

// RestoreCapacity replays live reservations into the capacity accountant
// after a restart. Items must already be tracked.
func (l *Ledger) RestoreCapacity(ctx context.Context) error {
	reservations, err := l.store.List(ctx)
	if err != nil {
		return err
	}
	for _, res := range reservations {
		if res.CapacityReleased {
			continue
		}
		if err := l.capacity.TryReserve(res.Item.ID, res.Count); err != nil {
			return fmt.Errorf("restore reservation %s: %w", res.ID, err)
		}
		if res.CapacityCommitted {
			if err := l.capacity.Commit(res.Item.ID, res.Count); err != nil {
				return fmt.Errorf("restore reservation %s: %w", res.ID, err)
			}
		}
	}
	return nil
}

func (l *Ledger) recordPayment(ctx context.Context, res *models.Reservation, txnID string, amount int64) {
	now := time.Now().UTC()
	p := &models.Payment{
		ID:            uuid.NewString(),
		Reference:     fmt.Sprintf("PAY-%d-%03d", now.UnixMilli(), rand.Intn(1000)),
		ReservationID: res.ID,
		TransactionID: txnID,
		Amount:        amount,
		Method:        "gateway",
		Status:        "paid",
		CreatedAt:     now,
	}
	// the reservation state is already durable; a failed record is logged,
	// not surfaced
	if err := l.payments.Append(ctx, p); err != nil {
		l.log.Error("failed to record payment",
			zap.String("reservation", res.ID), zap.String("transaction", txnID), zap.Error(err))
	}
}

// rollbackCommit undoes a counter commit when the subsequent persist
// failed, so a retried event starts from a clean hold.
func (l *Ledger) rollbackCommit(itemID string, count int) {
	if err := l.capacity.Release(itemID, count, true); err != nil {
		l.log.Error("commit rollback failed", zap.String("item", itemID), zap.Error(err))
		return
	}
	if err := l.capacity.TryReserve(itemID, count); err != nil {
		l.log.Error("commit rollback lost hold", zap.String("item", itemID), zap.Error(err))
	}
}

// restoreUnits re-takes units that were released just before a failed
// persist.
func (l *Ledger) restoreUnits(itemID string, count int, committed bool) {
	if err := l.capacity.TryReserve(itemID, count); err != nil {
		l.log.Error("release rollback failed", zap.String("item", itemID), zap.Error(err))
		return
	}
	if committed {
		if err := l.capacity.Commit(itemID, count); err != nil {
			l.log.Error("release rollback commit failed", zap.String("item", itemID), zap.Error(err))
		}
	}
}
