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

	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/types"
	"github.com/fxamacker/cbor/v2"
)

var flagSet = []byte{1}

func (d *Database) getFlag(name string, txn *Txn) (bool, error) {
	_, ok, err := d.get(types.ContractKey(name), txn)
	return ok, err
}

// IsDeployed reports whether the genesis deployment has run
func (d *Database) IsDeployed(txn *Txn) (bool, error) {
	return d.getFlag(types.DeployedKeyName, txn)
}

func (d *Database) SetDeployed(txn *Txn) error {
	return d.set(types.ContractKey(types.DeployedKeyName), flagSet, txn)
}

// IsDestroyed reports whether the contract has been destroyed
func (d *Database) IsDestroyed(txn *Txn) (bool, error) {
	return d.getFlag(types.DestroyedKeyName, txn)
}

// GetContractCode returns the code installed by the most recent update, or
// nil if the contract has never been updated
func (d *Database) GetContractCode(txn *Txn) (*models.ContractCode, error) {
	val, ok, err := d.get(types.ContractKey(types.ContractCodeKeyName), txn)
	if err != nil || !ok {
		return nil, err
	}
	ret := &models.ContractCode{}
	if err := cbor.Unmarshal(val, ret); err != nil {
		return nil, fmt.Errorf("decode contract code: %w", err)
	}
	return ret, nil
}

func (d *Database) SetContractCode(code *models.ContractCode, txn *Txn) error {
	val, err := cbor.Marshal(code)
	if err != nil {
		return err
	}
	return d.set(types.ContractKey(types.ContractCodeKeyName), val, txn)
}

// DestroyState removes all contract state and leaves a tombstone in its place
func (d *Database) DestroyState(txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := txn.requireWrite(); err != nil {
		return err
	}
	var keys [][]byte
	for _, prefix := range types.StatePrefixes() {
		iter := d.blob.NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			keys = append(keys, iter.Item().Key())
		}
		err := iter.Err()
		iter.Close()
		if err != nil {
			return err
		}
	}
	for _, key := range keys {
		if err := d.blob.Delete(txn.Blob(), key); err != nil {
			return err
		}
	}
	d.logger.Debug(
		"deleted contract state",
		"component", "database",
		"keys", len(keys),
	)
	return d.set(types.ContractKey(types.DestroyedKeyName), flagSet, txn)
}

// DumpState returns a copy of every contract state entry, keyed by the raw
// storage key
func (d *Database) DumpState(txn *Txn) (map[string][]byte, error) {
	txn, release := d.readTxn(txn)
	defer release()
	ret := make(map[string][]byte)
	for _, prefix := range types.StatePrefixes() {
		iter := d.blob.NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				iter.Close()
				return nil, err
			}
			ret[string(item.Key())] = val
		}
		err := iter.Err()
		iter.Close()
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}
