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

package database

import (
	"fmt"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/types"
	"github.com/fxamacker/cbor/v2"
)

// GetVoter returns the roster entry for an account. Accounts that were never
// enrolled read back as the zero voter.
func (d *Database) GetVoter(id account.Identity, txn *Txn) (models.Voter, error) {
	var ret models.Voter
	val, ok, err := d.get(types.VoterKey(id[:]), txn)
	if err != nil || !ok {
		return ret, err
	}
	if err := cbor.Unmarshal(val, &ret); err != nil {
		return ret, fmt.Errorf("decode voter %s: %w", id, err)
	}
	return ret, nil
}

func (d *Database) SetVoter(id account.Identity, voter models.Voter, txn *Txn) error {
	val, err := cbor.Marshal(voter)
	if err != nil {
		return err
	}
	return d.set(types.VoterKey(id[:]), val, txn)
}

// UpdateVoter reads a roster entry, applies fn to a copy and writes the
// result back. Nothing is written if fn returns an error.
func (d *Database) UpdateVoter(
	id account.Identity,
	fn func(*models.Voter) error,
	txn *Txn,
) error {
	voter, err := d.GetVoter(id, txn)
	if err != nil {
		return err
	}
	if err := fn(&voter); err != nil {
		return err
	}
	return d.SetVoter(id, voter, txn)
}
