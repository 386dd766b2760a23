package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/GBOHOUILI/even-travel-backend/internal/config"
	"github.com/GBOHOUILI/even-travel-backend/internal/domain"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

const (
	reservationKeyPrefix = "reservation:"
	reservationIndexKey  = "reservations"
	paymentListKey       = "payments"
)

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// RedisReservationStore persists reservations as JSON documents under
// reservation:<id> keys, with a set index for listing.
type RedisReservationStore struct {
	client *redis.Client
}

func NewRedisReservationStore(client *redis.Client) *RedisReservationStore {
	return &RedisReservationStore{client: client}
}

func (s *RedisReservationStore) Save(ctx context.Context, r *models.Reservation) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal reservation %s: %w", r.ID, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, reservationKeyPrefix+r.ID, data, 0)
	pipe.SAdd(ctx, reservationIndexKey, r.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save reservation %s: %w", r.ID, err)
	}
	return nil
}

func (s *RedisReservationStore) Get(ctx context.Context, id string) (*models.Reservation, error) {
	data, err := s.client.Get(ctx, reservationKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %s: %w", id, err)
	}
	var r models.Reservation
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal reservation %s: %w", id, err)
	}
	if r.ProcessedTxns == nil {
		r.ProcessedTxns = make(map[string]bool)
	}
	return &r, nil
}

func (s *RedisReservationStore) List(ctx context.Context) ([]*models.Reservation, error) {
	ids, err := s.client.SMembers(ctx, reservationIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	out := make([]*models.Reservation, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrReservationNotFound) {
			continue // index entry for a deleted record
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisReservationStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, reservationKeyPrefix+id)
	pipe.SRem(ctx, reservationIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrReservationNotFound, id)
	}
	return nil
}

// RedisPaymentStore appends payment records to a Redis list.
type RedisPaymentStore struct {
	client *redis.Client
}

func NewRedisPaymentStore(client *redis.Client) *RedisPaymentStore {
	return &RedisPaymentStore{client: client}
}

func (s *RedisPaymentStore) Append(ctx context.Context, p *models.Payment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payment %s: %w", p.ID, err)
	}
	if err := s.client.RPush(ctx, paymentListKey, data).Err(); err != nil {
		return fmt.Errorf("append payment %s: %w", p.ID, err)
	}
	return nil
}

func (s *RedisPaymentStore) List(ctx context.Context) ([]*models.Payment, error) {
	raw, err := s.client.LRange(ctx, paymentListKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]*models.Payment, 0, len(raw))
	for _, item := range raw {
		var p models.Payment
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("unmarshal payment: %w", err)
		}
		out = append(out, &p)
	}
	return out, nil
}
