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

package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/forge/api"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/engine"
	"github.com/blinklabs-io/forge/event"
	"github.com/blinklabs-io/forge/governance"
	"github.com/blinklabs-io/forge/ledger"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 30 * time.Second

type Node struct {
	db            *database.Database
	eventBus      *event.EventBus
	engine        *engine.Engine
	ledger        *ledger.Ledger
	registry      *governance.Registry
	api           *api.Server
	shutdownFuncs []func(context.Context) error
	cancel        context.CancelFunc
	config        Config
	mu            sync.Mutex
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	n := &Node{
		config: cfg,
	}
	return n, nil
}

// Open loads the database and assembles the contract components without
// starting any listeners. It is used directly by one-shot commands and by
// Run.
func (n *Node) Open() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.db != nil {
		return nil
	}
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"database initialization error, needs recovery",
			"component", "node",
			"error", err,
		)
		if err := db.RecoverCommitTimestamp(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	n.engine, err = engine.New(engine.Config{
		Database:     n.db,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to load contract engine: %w", err)
	}
	n.ledger, err = ledger.New(ledger.LedgerConfig{
		Engine:       n.engine,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		GenesisOwner: n.config.genesisOwner,
	})
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	n.registry, err = governance.New(governance.RegistryConfig{
		Engine:               n.engine,
		Logger:               n.config.logger,
		PromRegistry:         n.config.promRegistry,
		LegacyEnrollmentGate: n.config.legacyEnrollmentGate,
		RequireVoterWitness:  n.config.requireVoterWitness,
	})
	if err != nil {
		return fmt.Errorf("failed to load governance registry: %w", err)
	}
	return nil
}

// Run opens the node, starts the API and blocks until ctx is cancelled,
// Stop is called or a component fails
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()
	if err := n.Open(); err != nil {
		return errors.Join(err, n.Stop())
	}
	if n.config.autoDeploy {
		if err := n.deploy(ctx); err != nil {
			return errors.Join(err, n.Stop())
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	if n.config.apiListenAddress != "" {
		apiServer := api.New(
			api.APIConfig{
				ListenAddress:   n.config.apiListenAddress,
				Witnesses:       n.config.witnessTokens,
				ShutdownTimeout: n.shutdownTimeout(),
			},
			n.ledger,
			n.registry,
			n.db,
			n.eventBus,
			n.config.logger,
		)
		n.mu.Lock()
		n.api = apiServer
		n.mu.Unlock()
		if err := apiServer.Start(gctx); err != nil {
			return errors.Join(
				fmt.Errorf("failed to start API: %w", err),
				n.Stop(),
			)
		}
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err := g.Wait()
	return errors.Join(err, n.Stop())
}

func (n *Node) deploy(ctx context.Context) error {
	status, err := n.ledger.Status(ctx)
	if err != nil {
		return err
	}
	if status.Deployed || status.Destroyed {
		return nil
	}
	receipt, err := n.ledger.Deploy(ctx)
	if err != nil {
		if errors.Is(err, contract.ErrAlreadyDeployed) {
			return nil
		}
		return fmt.Errorf("genesis deployment failed: %w", err)
	}
	n.config.logger.Info(
		"deployed contract",
		"component", "node",
		"invocation_id", receipt.InvocationID,
	)
	return nil
}

// Stop shuts the node down. Only the first call has any effect.
func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdownTimeout() time.Duration {
	if n.config.shutdownTimeout > 0 {
		return n.config.shutdownTimeout
	}
	return defaultShutdownTimeout
}

func (n *Node) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		n.shutdownTimeout(),
	)
	defer cancel()
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}

	var err error
	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop event delivery
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	return err
}

func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

func (n *Node) Registry() *governance.Registry {
	return n.registry
}

func (n *Node) Database() *database.Database {
	return n.db
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// APIAddr returns the bound API address, or an empty string when the API is
// not running
func (n *Node) APIAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.api == nil {
		return ""
	}
	return n.api.Addr()
}
