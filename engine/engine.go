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

// Package engine runs contract invocations. Each invocation executes inside a
// single read-write database transaction under a process-wide lock, and its
// notifications are journaled and published once the transaction commits.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/event"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrNilDatabase = errors.New("engine: database must not be nil")

type Config struct {
	Database     *database.Database
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

type Engine struct {
	config  Config
	db      *database.Database
	roles   *auth.Roles
	metrics engineMetrics
	// Serializes invocations so that read-modify-write sequences never
	// interleave
	invokeMutex sync.Mutex
}

// Receipt describes a committed invocation
type Receipt struct {
	InvocationID  string                `json:"invocationId"`
	Operation     string                `json:"operation"`
	Notifications []models.Notification `json:"notifications"`
}

// InvokeFunc implements a single contract operation. It must check every
// precondition before its first write.
type InvokeFunc func(*Invocation) error

func New(cfg Config) (*Engine, error) {
	if cfg.Database == nil {
		return nil, ErrNilDatabase
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &Engine{
		config: cfg,
		db:     cfg.Database,
		roles:  auth.NewRoles(cfg.Database),
	}
	e.metrics.init(cfg.PromRegistry)
	return e, nil
}

func (e *Engine) Database() *database.Database {
	return e.db
}

func (e *Engine) Roles() *auth.Roles {
	return e.roles
}

func (e *Engine) EventBus() *event.EventBus {
	return e.config.EventBus
}

// Invoke runs fn as one atomic invocation on behalf of witness. All state
// written by fn and all notifications it emits are discarded if fn returns
// an error.
func (e *Engine) Invoke(
	ctx context.Context,
	operation string,
	witness auth.Authorizer,
	fn InvokeFunc,
) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	invocationId := InvocationIDFromContext(ctx)
	if invocationId == "" {
		invocationId = uuid.NewString()
	}
	e.invokeMutex.Lock()
	defer e.invokeMutex.Unlock()
	// The context may have been cancelled while waiting on the lock
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	inv := &Invocation{
		ctx:       ctx,
		id:        invocationId,
		operation: operation,
		witness:   witness,
		engine:    e,
		timestamp: start.UnixMilli(),
	}
	err := e.db.Transaction(true).Do(func(txn *database.Txn) error {
		inv.txn = txn
		destroyed, err := e.db.IsDestroyed(txn)
		if err != nil {
			return err
		}
		if destroyed {
			return contract.ErrContractDestroyed
		}
		if err := fn(inv); err != nil {
			return err
		}
		if len(inv.notifications) > 0 {
			if err := e.db.AddNotifications(inv.notifications, txn); err != nil {
				return fmt.Errorf("journal notifications: %w", err)
			}
		}
		txn.OnCommit(func() {
			e.publish(inv.notifications)
		})
		return nil
	})
	e.metrics.invocationDuration.WithLabelValues(operation).Observe(
		time.Since(start).Seconds(),
	)
	if err != nil {
		e.recordFailure(operation, invocationId, err)
		return nil, err
	}
	e.metrics.invocations.WithLabelValues(operation, "ok").Inc()
	e.config.Logger.Info(
		"invocation committed",
		"component", "engine",
		"operation", operation,
		"invocation_id", invocationId,
		"notifications", len(inv.notifications),
	)
	return &Receipt{
		InvocationID:  invocationId,
		Operation:     operation,
		Notifications: inv.notifications,
	}, nil
}

// recordFailure logs and counts an invocation that did not commit cleanly
func (e *Engine) recordFailure(operation string, invocationId string, err error) {
	if reason, ok := contract.Reason(err); ok {
		e.metrics.denied.WithLabelValues(operation, reason).Inc()
		e.config.Logger.Debug(
			"invocation denied",
			"component", "engine",
			"operation", operation,
			"invocation_id", invocationId,
			"reason", reason,
		)
		return
	}
	if errors.Is(err, database.ErrPartialCommit) {
		// State changes are durable but the journal entries and their
		// events are lost. The next open reports a commit timestamp
		// mismatch.
		e.metrics.invocations.WithLabelValues(operation, "partial_commit").Inc()
		e.config.Logger.Error(
			"invocation state committed without its notifications",
			"component", "engine",
			"operation", operation,
			"invocation_id", invocationId,
			"error", err,
		)
		return
	}
	e.metrics.invocations.WithLabelValues(operation, "error").Inc()
	e.config.Logger.Error(
		"invocation failed",
		"component", "engine",
		"operation", operation,
		"invocation_id", invocationId,
		"error", err,
	)
}

// Query runs fn against a read-only snapshot of the contract state
func (e *Engine) Query(ctx context.Context, fn func(*database.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := e.db.ReadTransaction()
	defer txn.Release()
	return fn(txn)
}

// publish hands notifications to the event bus worker pool so that a slow
// subscriber never holds the invocation lock
func (e *Engine) publish(notifications []models.Notification) {
	if e.config.EventBus == nil {
		return
	}
	for _, n := range notifications {
		e.config.EventBus.PublishAsync(
			event.NotificationEventType,
			event.NewEvent(
				event.NotificationEventType,
				event.NotificationEvent{Notification: n},
			),
		)
	}
}
