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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database/types"
)

// readTxn returns txn, or a new read-only transaction and a function to
// release it when txn is nil
func (d *Database) readTxn(txn *Txn) (*Txn, func()) {
	if txn != nil {
		return txn, func() {}
	}
	tmpTxn := d.ReadTransaction()
	return tmpTxn, tmpTxn.Release
}

// get returns the raw value for a key and whether it was present
func (d *Database) get(key []byte, txn *Txn) ([]byte, bool, error) {
	txn, release := d.readTxn(txn)
	defer release()
	val, err := d.blob.Get(txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (d *Database) set(key, val []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := txn.requireWrite(); err != nil {
		return err
	}
	return d.blob.Set(txn.Blob(), key, val)
}

func (d *Database) delete(key []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := txn.requireWrite(); err != nil {
		return err
	}
	return d.blob.Delete(txn.Blob(), key)
}

func (d *Database) getUint64(key []byte, txn *Txn) (uint64, error) {
	val, ok, err := d.get(key, txn)
	if err != nil || !ok {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("malformed integer at key %x: %d bytes", key, len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

// setUint64 stores an integer, removing the key entirely for zero
func (d *Database) setUint64(key []byte, val uint64, txn *Txn) error {
	if val == 0 {
		return d.delete(key, txn)
	}
	return d.set(key, types.Uint64ToBytes(val), txn)
}

// GetBalance returns the token balance of an account. Accounts that have
// never held tokens have a zero balance.
func (d *Database) GetBalance(id account.Identity, txn *Txn) (uint64, error) {
	return d.getUint64(types.BalanceKey(id[:]), txn)
}

func (d *Database) SetBalance(id account.Identity, amount uint64, txn *Txn) error {
	return d.setUint64(types.BalanceKey(id[:]), amount, txn)
}

func (d *Database) GetTotalSupply(txn *Txn) (uint64, error) {
	return d.getUint64(types.TotalSupplyKey(), txn)
}

func (d *Database) SetTotalSupply(amount uint64, txn *Txn) error {
	return d.setUint64(types.TotalSupplyKey(), amount, txn)
}

// GetBalances returns every non-zero balance
func (d *Database) GetBalances(txn *Txn) (map[account.Identity]uint64, error) {
	txn, release := d.readTxn(txn)
	defer release()
	ret := make(map[account.Identity]uint64)
	prefix := []byte{types.BalanceKeyPrefix}
	iter := d.blob.NewIterator(txn.Blob(), types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		id, err := account.FromBytes(item.Key()[len(prefix):])
		if err != nil {
			return nil, fmt.Errorf("malformed balance key: %w", err)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		if len(val) != 8 {
			return nil, fmt.Errorf("malformed balance for %s", id)
		}
		ret[id] = binary.BigEndian.Uint64(val)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
