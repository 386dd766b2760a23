package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GBOHOUILI/even-travel-backend/internal/config"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

func testClient(baseURL string) *Client {
	return NewClient(config.GatewayConfig{
		PublicKey:  "pk_test",
		SecretKey:  "sk_test",
		BaseURL:    baseURL,
		Sandbox:    true,
		Currency:   "XOF",
		TimeoutSec: 2,
	}, zap.NewNop())
}

func TestSignatureRoundTrip(t *testing.T) {
	c := testClient("")
	payload := []byte(`{"transactionId":"txn-1","status":"SUCCESS","amount":5000}`)

	sig := c.Sign(payload)
	require.True(t, c.VerifySignature(payload, sig))
	require.False(t, c.VerifySignature(payload, "forged"))
	require.False(t, c.VerifySignature([]byte(`{"amount":9999}`), sig))
}

func TestInitiate(t *testing.T) {
	c := testClient("")
	res := &models.Reservation{
		CorrelationID: "res-1",
		Client:        models.Client{FirstName: "Ayao", LastName: "Gbohouili", Email: "ayao@example.com", Phone: "+22990000000"},
		Item:          models.ItemRef{Kind: models.KindEvent, ID: "evt-1"},
	}

	instructions, err := c.Initiate(res, 5000)
	require.NoError(t, err)
	require.Equal(t, int64(5000), instructions.Amount)
	require.Equal(t, "XOF", instructions.Currency)
	require.Equal(t, "pk_test", instructions.PublicKey)
	require.True(t, instructions.Sandbox)
	require.JSONEq(t, `{"reservation_id":"res-1"}`, instructions.Data)
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"transactionId":"txn-1","status":"SUCCESS","amount":5000,"data":"{\"reservation_id\":\"res-1\"}"}`)

	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Equal(t, "txn-1", ev.TransactionID)
	require.Equal(t, StatusSuccess, ev.Status)
	require.Equal(t, int64(5000), ev.Amount)
	require.Equal(t, "res-1", ev.CorrelationID)

	_, err = ParseWebhook([]byte("not json"))
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/transactions/status", r.URL.Path)
		require.Equal(t, "sk_test", r.Header.Get("x-api-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "txn-1", body["transactionId"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    StatusSuccess,
			"amount":    5000,
			"stateData": `{"reservation_id":"res-1"}`,
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	ev, err := c.Verify(context.Background(), "txn-1")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, ev.Status)
	require.Equal(t, int64(5000), ev.Amount)
	require.Equal(t, "res-1", ev.CorrelationID)
}

func TestVerifyServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Verify(context.Background(), "txn-1")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestVerifyTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testClient(srv.URL)
	_, err := c.Verify(ctx, "txn-1")
	require.ErrorIs(t, err, ErrUnavailable)
}
