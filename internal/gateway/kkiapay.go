// Package gateway integrates the KkiaPay payment gateway: widget payment
// instructions on the way out, webhook signature validation and
// transaction verification on the way in.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/GBOHOUILI/even-travel-backend/internal/config"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

var (
	// ErrBadSignature rejects a webhook whose signature does not match
	// the configured secret.
	ErrBadSignature = errors.New("invalid webhook signature")

	// ErrUnavailable marks a transport failure talking to the gateway;
	// nothing was applied and the call is safe to retry.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrBadPayload marks an authenticated callback whose body cannot be
	// decoded. Retrying it will never succeed.
	ErrBadPayload = errors.New("malformed webhook payload")
)

const StatusSuccess = "SUCCESS"

// correlationData is the opaque blob handed to the gateway at initiation
// and echoed back on every callback.
type correlationData struct {
	ReservationID string `json:"reservation_id"`
}

// webhookPayload is the KkiaPay callback wire format.
type webhookPayload struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Data          string `json:"data"`
}

// Client is the outbound gateway adapter.
type Client struct {
	baseURL   string
	publicKey string
	secret    string
	sandbox   bool
	currency  string
	http      *http.Client
	log       *zap.Logger
}

func NewClient(cfg config.GatewayConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		publicKey: cfg.PublicKey,
		secret:    cfg.SecretKey,
		sandbox:   cfg.Sandbox,
		currency:  cfg.Currency,
		http:      &http.Client{Timeout: cfg.Timeout()},
		log:       log,
	}
}

func (c *Client) PublicKey() string { return c.publicKey }

// Initiate builds the payment instructions the frontend feeds to the
// gateway widget. No network call is involved.
func (c *Client) Initiate(res *models.Reservation, amount int64) (*models.PaymentInstructions, error) {
	data, err := json.Marshal(correlationData{ReservationID: res.CorrelationID})
	if err != nil {
		return nil, fmt.Errorf("marshal correlation data: %w", err)
	}
	return &models.PaymentInstructions{
		Amount:    amount,
		Currency:  c.currency,
		Phone:     res.Client.Phone,
		Email:     res.Client.Email,
		Name:      res.Client.FullName(),
		Reason:    fmt.Sprintf("Reservation %s - Even Travel", res.Item.Kind),
		Data:      string(data),
		Sandbox:   c.sandbox,
		PublicKey: c.publicKey,
	}, nil
}

// VerifySignature checks the webhook HMAC-SHA256 signature over the raw
// body against the shared secret.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the signature for a payload. Used by tests and by the
// sandbox tooling.
func (c *Client) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook decodes a callback body into a payment event.
func ParseWebhook(payload []byte) (*models.PaymentEvent, error) {
	var wp webhookPayload
	if err := json.Unmarshal(payload, &wp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	ev := &models.PaymentEvent{
		TransactionID: wp.TransactionID,
		Status:        wp.Status,
		Amount:        wp.Amount,
	}
	if wp.Data != "" {
		var cd correlationData
		if err := json.Unmarshal([]byte(wp.Data), &cd); err != nil {
			return nil, fmt.Errorf("%w: bad correlation data: %v", ErrBadPayload, err)
		}
		ev.CorrelationID = cd.ReservationID
	}
	return ev, nil
}

// Verify polls the gateway for the state of a transaction. The call is
// bounded by the configured timeout; transport failures come back as
// ErrUnavailable and are safe to retry.
func (c *Client) Verify(ctx context.Context, transactionID string) (*models.PaymentEvent, error) {
	body, err := json.Marshal(map[string]string{"transactionId": transactionID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transactions/status", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verify transaction %s: gateway returned %d", transactionID, resp.StatusCode)
	}

	var out struct {
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		StateData string `json:"stateData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	ev := &models.PaymentEvent{
		TransactionID: transactionID,
		Status:        out.Status,
		Amount:        out.Amount,
	}
	if out.StateData != "" {
		var cd correlationData
		if err := json.Unmarshal([]byte(out.StateData), &cd); err != nil {
			return nil, fmt.Errorf("decode verify state data: %w", err)
		}
		ev.CorrelationID = cd.ReservationID
	}
	return ev, nil
}
