// Package api is the thin HTTP surface over the booking subsystem. The
// real presentation layer lives elsewhere; these handlers only decode,
// delegate and encode.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/GBOHOUILI/even-travel-backend/internal/capacity"
	"github.com/GBOHOUILI/even-travel-backend/internal/catalog"
	"github.com/GBOHOUILI/even-travel-backend/internal/export"
	"github.com/GBOHOUILI/even-travel-backend/internal/gateway"
	"github.com/GBOHOUILI/even-travel-backend/internal/ledger"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
	"github.com/GBOHOUILI/even-travel-backend/internal/payment"
)

const signatureHeader = "X-Kkiapay-Signature"

type Server struct {
	ledger   *ledger.Ledger
	engine   *payment.Engine
	gateway  *gateway.Client
	exporter *export.ExcelExporter
	log      *zap.Logger
}

func NewServer(l *ledger.Ledger, e *payment.Engine, gw *gateway.Client, exp *export.ExcelExporter, log *zap.Logger) *Server {
	return &Server{ledger: l, engine: e, gateway: gw, exporter: exp, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("POST /api/v1/reservations", s.handleCreateReservation)
	mux.HandleFunc("GET /api/v1/reservations", s.handleListReservations)
	mux.HandleFunc("GET /api/v1/reservations/stats", s.handleReservationStats)
	mux.HandleFunc("GET /api/v1/reservations/export", s.handleExportReservations)
	mux.HandleFunc("GET /api/v1/reservations/{id}", s.handleGetReservation)
	mux.HandleFunc("PATCH /api/v1/reservations/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("POST /api/v1/reservations/{id}/cancel", s.handleCancelReservation)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", s.handleDeleteReservation)

	mux.HandleFunc("GET /api/v1/payments", s.handleListPayments)
	mux.HandleFunc("GET /api/v1/payments/stats", s.handlePaymentStats)
	mux.HandleFunc("POST /api/v1/payments/webhook", s.handleWebhook)
	mux.HandleFunc("GET /api/v1/payments/verify/{transactionId}", s.handleVerify)

	return mux
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.ledger.Create(r.Context(), req)
	if err != nil {
		s.error(w, err)
		return
	}

	instructions, err := s.gateway.Initiate(res, res.DueNow())
	if err != nil {
		s.error(w, err)
		return
	}

	s.success(w, http.StatusCreated, map[string]interface{}{
		"reservation": res,
		"payment":     instructions,
	})
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{"reservation": res})
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.ledger.List(r.Context())
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{
		"results":      len(reservations),
		"reservations": reservations,
	})
}

func (s *Server) handleReservationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

func (s *Server) handleExportReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.ledger.List(r.Context())
	if err != nil {
		s.error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=reservations-%s.xlsx", time.Now().Format("20060102")))
	if err := s.exporter.Write(w, reservations); err != nil {
		s.log.Error("export failed", zap.Error(err))
	}
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.ledger.UpdateStatus(r.Context(), r.PathValue("id"), body.Status)
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{"reservation": res})
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{"reservation": res})
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.ledger.Payments(r.Context())
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{
		"results":  len(payments),
		"payments": payments,
	})
}

func (s *Server) handlePaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.PaymentStats(r.Context())
	if err != nil {
		s.error(w, err)
		return
	}
	s.success(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

// handleWebhook acknowledges every authenticated delivery with 200 so
// the gateway only retries on transport failures.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "unreadable body")
		return
	}

	_, err = s.engine.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader))
	if err != nil {
		s.error(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	result, ev, err := s.engine.VerifyTransaction(r.Context(), r.PathValue("transactionId"))
	if err != nil {
		s.error(w, err)
		return
	}

	data := map[string]interface{}{"event": ev}
	if result != nil {
		data["reservation"] = result.Reservation
	}
	s.success(w, http.StatusOK, data)
}

func (s *Server) success(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func (s *Server) fail(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "fail",
		"message": message,
	})
}

func (s *Server) error(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidPlan),
		errors.Is(err, ledger.ErrInvalidTransition):
		s.fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, ledger.ErrReservationNotFound):
		s.fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, capacity.ErrInsufficientCapacity):
		s.fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, gateway.ErrBadSignature):
		s.fail(w, http.StatusUnauthorized, "invalid signature")
	case errors.Is(err, gateway.ErrBadPayload):
		s.fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrUnavailable):
		s.fail(w, http.StatusServiceUnavailable, "payment gateway unavailable, retry later")
	default:
		s.log.Error("request failed", zap.Error(err))
		s.fail(w, http.StatusInternalServerError, "internal error")
	}
}
