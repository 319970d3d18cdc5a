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

func (d *Database) GetLocation(id uint64, txn *Txn) (*models.Location, error) {
	val, ok, err := d.get(types.LocationKey(id), txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrLocationNotFound
	}
	ret := &models.Location{}
	if err := cbor.Unmarshal(val, ret); err != nil {
		return nil, fmt.Errorf("decode location %d: %w", id, err)
	}
	return ret, nil
}

func (d *Database) SetLocation(location *models.Location, txn *Txn) error {
	val, err := cbor.Marshal(location)
	if err != nil {
		return err
	}
	return d.set(types.LocationKey(location.ID), val, txn)
}

// UpdateLocation reads a location, applies fn to a copy and writes the result
// back. Nothing is written if fn returns an error.
func (d *Database) UpdateLocation(
	id uint64,
	fn func(*models.Location) error,
	txn *Txn,
) error {
	location, err := d.GetLocation(id, txn)
	if err != nil {
		return err
	}
	if err := fn(location); err != nil {
		return err
	}
	location.ID = id
	return d.SetLocation(location, txn)
}

// GetLocations returns locations in id order, skipping the first offset
// entries. A limit of zero returns all remaining locations.
func (d *Database) GetLocations(
	offset int,
	limit int,
	txn *Txn,
) ([]models.Location, error) {
	txn, release := d.readTxn(txn)
	defer release()
	prefix := []byte{types.LocationKeyPrefix}
	iter := d.blob.NewIterator(txn.Blob(), types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	ret := []models.Location{}
	idx := 0
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		if idx < offset {
			idx++
			continue
		}
		if limit > 0 && len(ret) >= limit {
			break
		}
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var tmpLocation models.Location
		if err := cbor.Unmarshal(val, &tmpLocation); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
		ret = append(ret, tmpLocation)
		idx++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetLocationCount returns the number of locations ever posted, which is
// also the id the next post will be assigned
func (d *Database) GetLocationCount(txn *Txn) (uint64, error) {
	return d.getUint64(types.ContractKey(types.LocationCountKeyName), txn)
}

func (d *Database) SetLocationCount(count uint64, txn *Txn) error {
	return d.setUint64(types.ContractKey(types.LocationCountKeyName), count, txn)
}
