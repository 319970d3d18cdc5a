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

// Package auth resolves the owner and administrator roles and checks them
// against the witnesses of the current invocation
package auth

import (
	"slices"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
)

// Authorizer reports whether an identity authorized the current invocation
type Authorizer interface {
	IsAuthorizedAs(account.Identity) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface
type AuthorizerFunc func(account.Identity) bool

func (f AuthorizerFunc) IsAuthorizedAs(id account.Identity) bool {
	return f(id)
}

// WitnessSet is an Authorizer backed by a fixed set of identities
type WitnessSet map[account.Identity]struct{}

func NewWitnessSet(ids ...account.Identity) WitnessSet {
	ret := make(WitnessSet, len(ids))
	for _, id := range ids {
		ret[id] = struct{}{}
	}
	return ret
}

// IsAuthorizedAs never reports the zero identity as authorized
func (w WitnessSet) IsAuthorizedAs(id account.Identity) bool {
	if id.IsZero() {
		return false
	}
	_, ok := w[id]
	return ok
}

// Identities returns the witnesses sorted by address
func (w WitnessSet) Identities() []account.Identity {
	ret := make([]account.Identity, 0, len(w))
	for id := range w {
		ret = append(ret, id)
	}
	slices.SortFunc(ret, func(a, b account.Identity) int {
		return slices.Compare(a[:], b[:])
	})
	return ret
}

// Roles reads the role configuration from the contract state
type Roles struct {
	db *database.Database
}

func NewRoles(db *database.Database) *Roles {
	return &Roles{db: db}
}

func (r *Roles) GetOwner(txn *database.Txn) (account.Identity, error) {
	return r.db.GetOwner(txn)
}

func (r *Roles) GetAdministrator(txn *database.Txn) (account.Identity, error) {
	return r.db.GetAdministrator(txn)
}

// IsOwner reports whether the stored owner is among the witnesses. It is
// false when no owner is stored.
func (r *Roles) IsOwner(witness Authorizer, txn *database.Txn) (bool, error) {
	owner, err := r.GetOwner(txn)
	if err != nil {
		return false, err
	}
	return authorizedAs(witness, owner), nil
}

// IsAdministrator reports whether the stored administrator is among the
// witnesses. It is false when no administrator is stored.
func (r *Roles) IsAdministrator(
	witness Authorizer,
	txn *database.Txn,
) (bool, error) {
	admin, err := r.GetAdministrator(txn)
	if err != nil {
		return false, err
	}
	return authorizedAs(witness, admin), nil
}

// RequireOwner returns contract.ErrUnauthorized unless IsOwner holds
func (r *Roles) RequireOwner(witness Authorizer, txn *database.Txn) error {
	ok, err := r.IsOwner(witness, txn)
	if err != nil {
		return err
	}
	if !ok {
		return contract.ErrUnauthorized
	}
	return nil
}

// RequireAdministrator returns contract.ErrUnauthorized unless
// IsAdministrator holds
func (r *Roles) RequireAdministrator(
	witness Authorizer,
	txn *database.Txn,
) error {
	ok, err := r.IsAdministrator(witness, txn)
	if err != nil {
		return err
	}
	if !ok {
		return contract.ErrUnauthorized
	}
	return nil
}

func authorizedAs(witness Authorizer, id account.Identity) bool {
	if witness == nil || id.IsZero() {
		return false
	}
	return witness.IsAuthorizedAs(id)
}
