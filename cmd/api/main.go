package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GBOHOUILI/even-travel-backend/internal/api"
	"github.com/GBOHOUILI/even-travel-backend/internal/capacity"
	"github.com/GBOHOUILI/even-travel-backend/internal/catalog"
	"github.com/GBOHOUILI/even-travel-backend/internal/config"
	"github.com/GBOHOUILI/even-travel-backend/internal/domain"
	"github.com/GBOHOUILI/even-travel-backend/internal/export"
	"github.com/GBOHOUILI/even-travel-backend/internal/gateway"
	"github.com/GBOHOUILI/even-travel-backend/internal/ledger"
	"github.com/GBOHOUILI/even-travel-backend/internal/metrics"
	"github.com/GBOHOUILI/even-travel-backend/internal/models"
	"github.com/GBOHOUILI/even-travel-backend/internal/payment"
	"github.com/GBOHOUILI/even-travel-backend/internal/repository"
	"github.com/GBOHOUILI/even-travel-backend/pkg/logger"
)

const sheetsExportInterval = 15 * time.Minute

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	itemsPath := os.Getenv("ITEMS_PATH")
	if itemsPath == "" {
		itemsPath = cfg.ItemsPath
	}
	if itemsPath == "" {
		itemsPath = "configs/items.yaml"
	}
	items, err := config.LoadItems(itemsPath)
	if err != nil {
		log.Fatalf("Error loading %s: %v", itemsPath, err)
	}

	zlog := logger.New(cfg.App.Name, cfg.Logging.Level)
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	accountant := capacity.NewAccountant()
	registry := catalog.NewRegistry()
	var events, destinations []models.Item
	for _, it := range items {
		accountant.Track(it.ID, it.TotalCapacity, it.RemainingCapacity)
		switch it.Kind {
		case models.KindEvent:
			events = append(events, it)
		case models.KindDestination:
			destinations = append(destinations, it)
		}
	}
	registry.Register(models.KindEvent, catalog.NewMemoryProvider(events))
	registry.Register(models.KindDestination, catalog.NewMemoryProvider(destinations))

	var (
		reservationStore domain.ReservationRepository
		paymentStore     domain.PaymentRepository
		persistent       bool
	)
	if cfg.Redis.Address != "" {
		client := repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, client); err != nil {
			log.Fatalf("Redis unavailable: %v", err)
		}
		defer client.Close()
		reservationStore = repository.NewRedisReservationStore(client)
		paymentStore = repository.NewRedisPaymentStore(client)
		persistent = true
		zlog.Info("using Redis store", zap.String("address", cfg.Redis.Address))
	} else {
		reservationStore = repository.NewMemoryReservationStore()
		paymentStore = repository.NewMemoryPaymentStore()
		zlog.Info("using in-memory store")
	}

	led := ledger.New(reservationStore, paymentStore, registry, accountant, m, zlog)
	if persistent {
		if err := led.RestoreCapacity(ctx); err != nil {
			log.Fatalf("Error restoring capacity counters: %v", err)
		}
	}

	gw := gateway.NewClient(cfg.Gateway, zlog)
	engine := payment.NewEngine(led, gw, m, zlog)
	exporter := export.NewExcelExporter(cfg.Exports.Path)
	server := api.NewServer(led, engine, gw, exporter, zlog)

	if cfg.Google.CredentialsFile != "" && cfg.Google.ReservationsSpreadsheetID != "" {
		sheetsExporter, err := export.NewSheetsExporter(ctx, cfg.Google.CredentialsFile, cfg.Google.ReservationsSpreadsheetID)
		if err != nil {
			log.Fatalf("Error creating Sheets exporter: %v", err)
		}
		if err := sheetsExporter.TestConnection(); err != nil {
			zlog.Warn("Sheets export disabled", zap.Error(err))
		} else {
			go runSheetsExport(ctx, led, sheetsExporter, zlog)
		}
	}

	if cfg.Monitoring.PrometheusEnabled {
		port := cfg.Monitoring.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go startMetricsServer(ctx, port, zlog)
	}

	addr := cfg.HTTP.Address
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Info("API server started", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
	zlog.Info("API server stopped")
}

func runSheetsExport(ctx context.Context, led *ledger.Ledger, exporter *export.SheetsExporter, zlog *zap.Logger) {
	ticker := time.NewTicker(sheetsExportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reservations, err := led.List(ctx)
			if err != nil {
				zlog.Error("sheets export: list failed", zap.Error(err))
				continue
			}
			if err := exporter.Export(ctx, reservations); err != nil {
				zlog.Error("sheets export failed", zap.Error(err))
			}
		}
	}
}

func startMetricsServer(ctx context.Context, port int, zlog *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	zlog.Info("metrics server started", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Error("metrics server error", zap.Error(err))
	}
}
