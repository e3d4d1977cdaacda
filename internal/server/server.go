package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"store-ledger/internal/config"
	"store-ledger/internal/handler"
	"store-ledger/internal/repository"
	"store-ledger/internal/service"
	"store-ledger/internal/settings"
)

// Server owns the store handle, the settings store, and the HTTP
// surface the front-end calls.
type Server struct {
	router   *mux.Router
	server   *http.Server
	db       *sql.DB
	settings *settings.Store
	logger   *slog.Logger
	port     string
}

// NewServer initializes the store (backing up any existing file and
// applying the schema) and wires services and handlers.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := repository.Initialize(cfg.DatabasePath, cfg.BackupDir, logger)
	if err != nil {
		return nil, err
	}

	settingsStore, err := settings.Open(cfg.SettingsPath, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := repository.NewStore(db, logger)

	accountService := service.NewAccountService(store, logger)
	ledgerService := service.NewLedgerService(store, logger)
	reportingService := service.NewReportingService(store, logger)

	accountHandler := handler.NewAccountHandler(accountService, ledgerService, settingsStore)
	transactionHandler := handler.NewTransactionHandler(ledgerService, settingsStore)
	orderHandler := handler.NewOrderHandler(ledgerService, settingsStore)
	reportingHandler := handler.NewReportingHandler(reportingService)
	settingsHandler := handler.NewSettingsHandler(settingsStore)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	// Account routes
	router.HandleFunc("/accounts", accountHandler.EnsureAccount).Methods("POST")
	router.HandleFunc("/accounts/lookup", reportingHandler.Lookup).Methods("GET")
	router.HandleFunc("/accounts/{user_id}", accountHandler.GetAccount).Methods("GET")
	router.HandleFunc("/accounts/{user_id}/stats", reportingHandler.UserStats).Methods("GET")
	router.HandleFunc("/accounts/{user_id}/history", accountHandler.BalanceHistory).Methods("GET")
	router.HandleFunc("/accounts/{user_id}/balance", accountHandler.ModifyBalance).Methods("POST")
	router.HandleFunc("/accounts/{user_id}/ban", accountHandler.Ban).Methods("POST")
	router.HandleFunc("/accounts/{user_id}/unban", accountHandler.Unban).Methods("POST")

	// Transaction routes
	router.HandleFunc("/transactions", transactionHandler.Create).Methods("POST")
	router.HandleFunc("/transactions/{tx_id}/complete", transactionHandler.Complete).Methods("POST")
	router.HandleFunc("/transactions/{tx_id}/reject", transactionHandler.Reject).Methods("POST")

	// Order routes
	router.HandleFunc("/orders", orderHandler.Create).Methods("POST")
	router.HandleFunc("/orders/{order_id}/complete", orderHandler.Complete).Methods("POST")
	router.HandleFunc("/orders/{order_id}/reject", orderHandler.Reject).Methods("POST")

	// Reporting and settings
	router.HandleFunc("/stats", reportingHandler.Overview).Methods("GET")
	router.HandleFunc("/settings/{key}", settingsHandler.Get).Methods("GET")
	router.HandleFunc("/settings/{key}", settingsHandler.Set).Methods("PUT")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "store unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router:   router,
		db:       db,
		settings: settingsStore,
		logger:   logger,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server and releases the store handle.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var shutdownErr error
	if s.server != nil {
		shutdownErr = s.server.Shutdown(ctx)
	}

	if s.db != nil {
		s.db.Close()
	}

	return shutdownErr
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	srv, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := srv.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return srv, port, nil
}
