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

// Package ledger implements the BBLE token: owner-gated mint, burn and
// transfer over an account balance table, the genesis deployment and the
// contract lifecycle operations.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/engine"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Symbol   = "BBLE"
	Decimals = 8

	// GenesisSupply is 21,000,000 tokens expressed in minimal units
	GenesisSupply uint64 = 21_000_000 * 100_000_000

	DefaultGenesisOwner = "NcRtxmtaNPTpFJQRuuWafFKRVgLfqbL2ub"
)

// Operation names, as recorded in metrics and logs
const (
	OpDeploy   = "deploy"
	OpMint     = "mint"
	OpBurn     = "burn"
	OpTransfer = "transfer"
	OpUpdate   = "update"
	OpDestroy  = "destroy"
	OpSetOwner = "setOwner"
)

var ErrNilEngine = errors.New("ledger: engine must not be nil")

type LedgerConfig struct {
	Engine       *engine.Engine
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// GenesisOwner receives the roles and the genesis supply at deployment.
	// The zero value selects DefaultGenesisOwner.
	GenesisOwner account.Identity
}

type Ledger struct {
	config  LedgerConfig
	engine  *engine.Engine
	db      *database.Database
	metrics ledgerMetrics
}

func New(cfg LedgerConfig) (*Ledger, error) {
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.GenesisOwner.IsZero() {
		cfg.GenesisOwner = account.MustParse(DefaultGenesisOwner)
	}
	l := &Ledger{
		config: cfg,
		engine: cfg.Engine,
		db:     cfg.Engine.Database(),
	}
	l.metrics.init(cfg.PromRegistry)
	supply, err := l.db.GetTotalSupply(nil)
	if err != nil {
		return nil, fmt.Errorf("load total supply: %w", err)
	}
	l.metrics.totalSupply.Set(float64(supply))
	return l, nil
}

func (l *Ledger) GenesisOwner() account.Identity {
	return l.config.GenesisOwner
}

// Deploy performs the genesis deployment. It may only run once.
func (l *Ledger) Deploy(ctx context.Context) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpDeploy, nil, func(inv *engine.Invocation) error {
		deployed, err := l.db.IsDeployed(inv.Txn())
		if err != nil {
			return err
		}
		if deployed {
			return contract.ErrAlreadyDeployed
		}
		return l.deploy(inv, false)
	})
}

// deploy installs the genesis state. Deployments triggered by an update
// leave the state alone.
func (l *Ledger) deploy(inv *engine.Invocation, update bool) error {
	if update {
		return nil
	}
	txn := inv.Txn()
	owner := l.config.GenesisOwner
	if err := l.db.SetOwner(owner, txn); err != nil {
		return err
	}
	if err := l.db.SetAdministrator(owner, txn); err != nil {
		return err
	}
	if err := l.db.SetDeployed(txn); err != nil {
		return err
	}
	inv.Notify(models.NotificationTypeDeploy, account.Zero, owner, 0, nil)
	if err := l.mint(inv, owner, GenesisSupply); err != nil {
		return err
	}
	l.config.Logger.Info(
		"genesis deployment",
		"component", "ledger",
		"owner", owner.String(),
		"supply", GenesisSupply,
	)
	return nil
}

// Mint credits amount to id and increases the total supply
func (l *Ledger) Mint(
	ctx context.Context,
	witness auth.Authorizer,
	id account.Identity,
	amount uint64,
) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpMint, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireOwner(); err != nil {
			return err
		}
		return l.mint(inv, id, amount)
	})
}

func (l *Ledger) mint(
	inv *engine.Invocation,
	id account.Identity,
	amount uint64,
) error {
	if amount == 0 {
		return nil
	}
	if id.IsZero() {
		return contract.ErrInvalidIdentity
	}
	txn := inv.Txn()
	balance, err := l.db.GetBalance(id, txn)
	if err != nil {
		return err
	}
	supply, err := l.db.GetTotalSupply(txn)
	if err != nil {
		return err
	}
	newBalance, ok := addUint64(balance, amount)
	if !ok {
		return contract.ErrOverflow
	}
	newSupply, ok := addUint64(supply, amount)
	if !ok {
		return contract.ErrOverflow
	}
	if err := l.db.SetBalance(id, newBalance, txn); err != nil {
		return err
	}
	if err := l.db.SetTotalSupply(newSupply, txn); err != nil {
		return err
	}
	inv.Notify(models.NotificationTypeTransfer, account.Zero, id, amount, nil)
	txn.OnCommit(func() {
		l.metrics.minted.Add(float64(amount))
		l.metrics.totalSupply.Set(float64(newSupply))
	})
	return nil
}

// Burn debits amount from id and decreases the total supply
func (l *Ledger) Burn(
	ctx context.Context,
	witness auth.Authorizer,
	id account.Identity,
	amount uint64,
) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpBurn, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireOwner(); err != nil {
			return err
		}
		txn := inv.Txn()
		balance, err := l.db.GetBalance(id, txn)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf(
				"%w: %s holds %d, burn requires %d",
				contract.ErrInsufficientBalance,
				id,
				balance,
				amount,
			)
		}
		if amount == 0 {
			return nil
		}
		supply, err := l.db.GetTotalSupply(txn)
		if err != nil {
			return err
		}
		// Supply always covers any single balance
		newSupply := supply - amount
		if err := l.db.SetBalance(id, balance-amount, txn); err != nil {
			return err
		}
		if err := l.db.SetTotalSupply(newSupply, txn); err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeTransfer, id, account.Zero, amount, nil)
		txn.OnCommit(func() {
			l.metrics.burned.Add(float64(amount))
			l.metrics.totalSupply.Set(float64(newSupply))
		})
		return nil
	})
}

// Transfer moves amount from one account to another. This is an
// administrative override: only the owner's witness is checked, never the
// sender's.
func (l *Ledger) Transfer(
	ctx context.Context,
	witness auth.Authorizer,
	from account.Identity,
	to account.Identity,
	amount uint64,
) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpTransfer, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireOwner(); err != nil {
			return err
		}
		if from.IsZero() || to.IsZero() {
			return contract.ErrInvalidIdentity
		}
		txn := inv.Txn()
		fromBalance, err := l.db.GetBalance(from, txn)
		if err != nil {
			return err
		}
		if fromBalance < amount {
			return fmt.Errorf(
				"%w: %s holds %d, transfer requires %d",
				contract.ErrInsufficientBalance,
				from,
				fromBalance,
				amount,
			)
		}
		if amount > 0 && from != to {
			toBalance, err := l.db.GetBalance(to, txn)
			if err != nil {
				return err
			}
			newToBalance, ok := addUint64(toBalance, amount)
			if !ok {
				return contract.ErrOverflow
			}
			if err := l.db.SetBalance(from, fromBalance-amount, txn); err != nil {
				return err
			}
			if err := l.db.SetBalance(to, newToBalance, txn); err != nil {
				return err
			}
		}
		inv.Notify(models.NotificationTypeTransfer, from, to, amount, nil)
		txn.OnCommit(func() {
			l.metrics.transferred.Add(float64(amount))
		})
		return nil
	})
}

// Update installs new contract code and manifest and bumps the contract
// version
func (l *Ledger) Update(
	ctx context.Context,
	witness auth.Authorizer,
	code []byte,
	manifest string,
) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpUpdate, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireOwner(); err != nil {
			return err
		}
		txn := inv.Txn()
		current, err := l.db.GetContractCode(txn)
		if err != nil {
			return err
		}
		var version uint64
		if current != nil {
			version = current.Version
		}
		newCode := &models.ContractCode{
			Code:     code,
			Manifest: manifest,
			Version:  version + 1,
		}
		if err := l.db.SetContractCode(newCode, txn); err != nil {
			return err
		}
		if err := l.deploy(inv, true); err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeUpdate, account.Zero, account.Zero, newCode.Version, nil)
		l.config.Logger.Info(
			"contract updated",
			"component", "ledger",
			"version", newCode.Version,
			"code_size", len(code),
		)
		return nil
	})
}

// Destroy removes all contract state. Every later invocation fails with
// contract.ErrContractDestroyed.
func (l *Ledger) Destroy(
	ctx context.Context,
	witness auth.Authorizer,
) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpDestroy, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireOwner(); err != nil {
			return err
		}
		if err := l.db.DestroyState(inv.Txn()); err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeDestroy, account.Zero, account.Zero, 0, nil)
		inv.Txn().OnCommit(func() {
			l.metrics.totalSupply.Set(0)
		})
		l.config.Logger.Warn(
			"contract destroyed",
			"component", "ledger",
			"invocation_id", inv.ID(),
		)
		return nil
	})
}

// SetOwner hands ownership to newOwner. Only the current owner may do this.
func (l *Ledger) SetOwner(
	ctx context.Context,
	witness auth.Authorizer,
	newOwner account.Identity,
) (*engine.Receipt, error) {
	return l.engine.Invoke(ctx, OpSetOwner, witness, func(inv *engine.Invocation) error {
		if err := inv.RequireOwner(); err != nil {
			return err
		}
		if newOwner.IsZero() {
			return contract.ErrInvalidIdentity
		}
		txn := inv.Txn()
		oldOwner, err := l.db.GetOwner(txn)
		if err != nil {
			return err
		}
		if err := l.db.SetOwner(newOwner, txn); err != nil {
			return err
		}
		inv.Notify(models.NotificationTypeOwnerChanged, oldOwner, newOwner, 0, nil)
		return nil
	})
}

func addUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}
