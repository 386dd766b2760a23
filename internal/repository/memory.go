package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GBOHOUILI/even-travel-backend/internal/domain"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

// MemoryReservationStore keeps reservations in process memory. Used in
// tests and for single-node deployments without Redis.
type MemoryReservationStore struct {
	mu           sync.RWMutex
	reservations map[string]*models.Reservation
}

func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{reservations: make(map[string]*models.Reservation)}
}

func (s *MemoryReservationStore) Save(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = r.Clone()
	return nil
}

func (s *MemoryReservationStore) Get(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	return r.Clone(), nil
}

func (s *MemoryReservationStore) List(_ context.Context) ([]*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryReservationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	delete(s.reservations, id)
	return nil
}

// MemoryPaymentStore is the in-process payment ledger.
type MemoryPaymentStore struct {
	mu       sync.RWMutex
	payments []*models.Payment
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{}
}

func (s *MemoryPaymentStore) Append(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments = append(s.payments, &cp)
	return nil
}

func (s *MemoryPaymentStore) List(_ context.Context) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
