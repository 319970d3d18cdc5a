// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the contract over a JSON REST interface
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/forge/account"
)

const (
	DefaultListenAddress = ":8080"

	// WitnessHeader carries the bearer tokens of the identities that
	// authorize a request
	WitnessHeader = "X-Forge-Witness"
	// InvocationIdHeader is set on every mutating response
	InvocationIdHeader = "X-Invocation-Id"
)

var ErrServerStarted = errors.New("server already started")

type APIConfig struct {
	ListenAddress string
	// Witnesses maps bearer tokens to the identity they prove
	Witnesses map[string]account.Identity
	// ShutdownTimeout bounds the graceful shutdown after the Start context
	// is cancelled
	ShutdownTimeout time.Duration
}

// Server is the contract REST API server
type Server struct {
	config     APIConfig
	logger     *slog.Logger
	ledger     Ledger
	registry   Registry
	journal    Journal
	events     Events
	httpServer *http.Server
	mu         sync.Mutex
}

func New(
	cfg APIConfig,
	ledger Ledger,
	registry Registry,
	journal Journal,
	events Events,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		config:   cfg,
		logger:   logger,
		ledger:   ledger,
		registry: registry,
		journal:  journal,
		events:   events,
	}
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Ledger
	mux.HandleFunc("GET /api/v1/contract", s.handleContract)
	mux.HandleFunc("GET /api/v1/supply", s.handleSupply)
	mux.HandleFunc("GET /api/v1/balances/{account}", s.handleBalance)
	mux.HandleFunc("POST /api/v1/mint", s.handleMint)
	mux.HandleFunc("POST /api/v1/burn", s.handleBurn)
	mux.HandleFunc("POST /api/v1/transfer", s.handleTransfer)
	mux.HandleFunc("POST /api/v1/owner", s.handleSetOwner)
	mux.HandleFunc("POST /api/v1/update", s.handleUpdate)
	mux.HandleFunc("POST /api/v1/destroy", s.handleDestroy)

	// Governance
	mux.HandleFunc("POST /api/v1/administrator", s.handleSetAdministrator)
	mux.HandleFunc("GET /api/v1/locations", s.handleLocations)
	mux.HandleFunc("POST /api/v1/locations", s.handlePost)
	mux.HandleFunc("GET /api/v1/locations/count", s.handleLocationCount)
	mux.HandleFunc("GET /api/v1/locations/{id}", s.handleLocation)
	mux.HandleFunc("GET /api/v1/locations/{id}/owner", s.handleLocationOwner)
	mux.HandleFunc("POST /api/v1/locations/{id}/votes", s.handleVote)
	mux.HandleFunc("GET /api/v1/voters/{account}", s.handleVoter)
	mux.HandleFunc("POST /api/v1/voters/{account}/enroll", s.handleEnroll)

	// Journal
	mux.HandleFunc("GET /api/v1/notifications", s.handleNotifications)
	mux.HandleFunc("GET /api/v1/notifications/stream", s.handleNotificationStream)
	return mux
}

// Start starts the HTTP server in a background goroutine. The server shuts
// down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return ErrServerStarted
	}
	// Request contexts are cancelled on shutdown so that open notification
	// streams do not hold Shutdown until its deadline
	//nolint:contextcheck
	baseCtx, cancelBase := context.WithCancel(context.Background())
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
	server.RegisterOnShutdown(cancelBase)
	s.httpServer = server
	s.mu.Unlock()

	if err := s.startServer(server); err != nil {
		cancelBase()
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}
	s.logger.Info("API listener started on " + s.config.ListenAddress)

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.ShutdownTimeout,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

// Addr returns the bound listen address, which differs from the configured
// one when port 0 was requested
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// startServer binds the listening socket first so that port conflicts are
// reported to the caller, then serves in a background goroutine
func (s *Server) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	s.mu.Lock()
	server.Addr = ln.Addr().String()
	s.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}
