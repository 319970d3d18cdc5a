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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blinklabs-io/forge"
	"github.com/blinklabs-io/forge/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NodeOptions translates the loaded configuration into node options
func NodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
) ([]forge.ConfigOptionFunc, error) {
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	genesisOwner, err := cfg.GenesisOwnerIdentity()
	if err != nil {
		return nil, err
	}
	witnesses, err := cfg.WitnessIdentities()
	if err != nil {
		return nil, err
	}
	return []forge.ConfigOptionFunc{
		forge.WithLogger(logger),
		forge.WithDatabasePath(cfg.DatabasePath),
		forge.WithBlobPlugin(cfg.BlobPlugin),
		forge.WithMetadataPlugin(cfg.MetadataPlugin),
		forge.WithGenesisOwner(genesisOwner),
		forge.WithWitnessTokens(witnesses),
		forge.WithLegacyEnrollmentGate(cfg.LegacyEnrollmentGate),
		forge.WithRequireVoterWitness(cfg.RequireVoterWitness),
		forge.WithShutdownTimeout(shutdownTimeout),
	}, nil
}

// Open opens the node for a one-shot command. The caller must call Stop on
// the returned node.
func Open(cfg *config.Config, logger *slog.Logger) (*forge.Node, error) {
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	n, err := forge.New(forge.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := n.Open(); err != nil {
		return nil, errors.Join(err, n.Stop())
	}
	return n, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := NodeOptions(cfg, logger)
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	opts = append(
		opts,
		forge.WithApiListenAddress(cfg.ApiListenAddress()),
		forge.WithAutoDeploy(cfg.AutoDeploy),
		forge.WithTracing(cfg.Tracing),
		forge.WithTracingStdout(cfg.TracingStdout),
		// Enable metrics with default prometheus registry
		forge.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	n, err := forge.New(forge.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Metrics and debug listener
	var metricsServer *http.Server
	metricsErr := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		metricsAddr := net.JoinHostPort(
			cfg.BindAddr,
			strconv.FormatUint(uint64(cfg.MetricsPort), 10),
		)
		http.Handle("/metrics", promhttp.Handler())
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErr <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		errChan <- n.Run(signalCtx)
	}()

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		runErr = <-errChan
	case err := <-metricsErr:
		logger.Error("failed to start metrics listener", "error", err)
		signalCtxStop()
		runErr = errors.Join(err, <-errChan)
	case runErr = <-errChan:
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if runErr != nil {
		logger.Error("node error", "error", runErr)
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}
