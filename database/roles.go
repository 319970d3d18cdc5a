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
	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database/types"
)

func (d *Database) getIdentity(name string, txn *Txn) (account.Identity, error) {
	val, ok, err := d.get(types.ContractKey(name), txn)
	if err != nil || !ok {
		return account.Zero, err
	}
	return account.FromBytes(val)
}

// GetOwner returns the stored owner, or the zero identity if none is stored
func (d *Database) GetOwner(txn *Txn) (account.Identity, error) {
	return d.getIdentity(types.OwnerKeyName, txn)
}

func (d *Database) SetOwner(id account.Identity, txn *Txn) error {
	return d.set(types.ContractKey(types.OwnerKeyName), id.Bytes(), txn)
}

// GetAdministrator returns the stored administrator, or the zero identity if
// none is stored
func (d *Database) GetAdministrator(txn *Txn) (account.Identity, error) {
	return d.getIdentity(types.AdminKeyName, txn)
}

func (d *Database) SetAdministrator(id account.Identity, txn *Txn) error {
	return d.set(types.ContractKey(types.AdminKeyName), id.Bytes(), txn)
}
