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

package ledger

import (
	"context"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
)

func (l *Ledger) Symbol() string {
	return Symbol
}

func (l *Ledger) Decimals() uint8 {
	return Decimals
}

func (l *Ledger) BalanceOf(
	ctx context.Context,
	id account.Identity,
) (uint64, error) {
	var ret uint64
	err := l.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = l.db.GetBalance(id, txn)
		return err
	})
	return ret, err
}

func (l *Ledger) TotalSupply(ctx context.Context) (uint64, error) {
	var ret uint64
	err := l.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = l.db.GetTotalSupply(txn)
		return err
	})
	return ret, err
}

// Balances returns every non-zero balance
func (l *Ledger) Balances(
	ctx context.Context,
) (map[account.Identity]uint64, error) {
	var ret map[account.Identity]uint64
	err := l.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = l.db.GetBalances(txn)
		return err
	})
	return ret, err
}

// Roles returns the stored owner and administrator
func (l *Ledger) Roles(
	ctx context.Context,
) (account.Identity, account.Identity, error) {
	var owner, admin account.Identity
	err := l.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		if owner, err = l.db.GetOwner(txn); err != nil {
			return err
		}
		admin, err = l.db.GetAdministrator(txn)
		return err
	})
	return owner, admin, err
}

// Status summarizes the contract lifecycle
type Status struct {
	Deployed  bool   `json:"deployed"`
	Destroyed bool   `json:"destroyed"`
	Version   uint64 `json:"version"`
}

func (l *Ledger) Status(ctx context.Context) (Status, error) {
	var ret Status
	err := l.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		if ret.Deployed, err = l.db.IsDeployed(txn); err != nil {
			return err
		}
		if ret.Destroyed, err = l.db.IsDestroyed(txn); err != nil {
			return err
		}
		var code *models.ContractCode
		if code, err = l.db.GetContractCode(txn); err != nil {
			return err
		}
		if code != nil {
			ret.Version = code.Version
		}
		return nil
	})
	return ret, err
}
