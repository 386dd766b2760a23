// Package payment reconciles externally delivered payment confirmations
// with the reservation ledger: authenticate, deduplicate, resolve,
// apply, acknowledge.
package payment

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/GBOHOUILI/even-travel-backend/internal/gateway"
	"github.com/GBOHOUILI/even-travel-backend/internal/ledger"
	"github.com/GBOHOUILI/even-travel-backend/internal/metrics"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

// Gateway is the slice of the gateway adapter the engine needs.
type Gateway interface {
	VerifySignature(payload []byte, signature string) bool
	Verify(ctx context.Context, transactionID string) (*models.PaymentEvent, error)
}

// Engine drives ledger transitions from gateway events. Webhook and
// verify-poll deliveries run through the same dedup+apply path, so a
// double delivery never double-counts.
type Engine struct {
	ledger  *ledger.Ledger
	gateway Gateway
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewEngine(l *ledger.Ledger, gw Gateway, m *metrics.Metrics, log *zap.Logger) *Engine {
	return &Engine{ledger: l, gateway: gw, metrics: m, log: log}
}

// HandleWebhook processes a raw callback. An invalid signature is
// rejected with zero state change. Business-level failures (unknown
// reservation, non-success status, replays) come back as a nil error so
// the transport layer acknowledges them; only real faults surface.
func (e *Engine) HandleWebhook(ctx context.Context, payload []byte, signature string) (*ledger.ApplyResult, error) {
	if !e.gateway.VerifySignature(payload, signature) {
		e.metrics.PaymentsRejected.Inc()
		e.log.Warn("webhook rejected: bad signature")
		return nil, gateway.ErrBadSignature
	}

	ev, err := gateway.ParseWebhook(payload)
	if err != nil {
		return nil, err
	}
	return e.apply(ctx, ev)
}

// VerifyTransaction is the synchronous poll path: ask the gateway for
// the transaction state, then apply it through the identical dedup
// logic. The gateway call happens with no locks held.
func (e *Engine) VerifyTransaction(ctx context.Context, transactionID string) (*ledger.ApplyResult, *models.PaymentEvent, error) {
	ev, err := e.gateway.Verify(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	result, err := e.apply(ctx, ev)
	return result, ev, err
}

func (e *Engine) apply(ctx context.Context, ev *models.PaymentEvent) (*ledger.ApplyResult, error) {
	if ev.Status != gateway.StatusSuccess {
		e.log.Info("ignoring non-success payment event",
			zap.String("transaction", ev.TransactionID), zap.String("status", ev.Status))
		return nil, nil
	}
	if ev.CorrelationID == "" {
		e.log.Warn("payment event without correlation id",
			zap.String("transaction", ev.TransactionID))
		return nil, nil
	}

	result, err := e.ledger.ApplyPayment(ctx, ev.CorrelationID, ev.TransactionID, ev.Amount)
	if errors.Is(err, ledger.ErrReservationNotFound) {
		e.log.Warn("payment event for unknown reservation",
			zap.String("correlation", ev.CorrelationID),
			zap.String("transaction", ev.TransactionID))
		return nil, nil
	}
	return result, err
}
