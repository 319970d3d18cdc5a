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

package governance

import (
	"context"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
)

// OwnerOf returns the owner recorded for a location
func (r *Registry) OwnerOf(
	ctx context.Context,
	locationId uint64,
) (account.Identity, error) {
	location, err := r.DetailOf(ctx, locationId)
	if err != nil {
		return account.Zero, err
	}
	return location.Owner, nil
}

func (r *Registry) DetailOf(
	ctx context.Context,
	locationId uint64,
) (*models.Location, error) {
	var ret *models.Location
	err := r.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = r.getLocation(locationId, txn)
		return err
	})
	return ret, err
}

// LocationCount returns the number of posted locations, which is also the
// id of the next one
func (r *Registry) LocationCount(ctx context.Context) (uint64, error) {
	var ret uint64
	err := r.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = r.db.GetLocationCount(txn)
		return err
	})
	return ret, err
}

// Locations returns a page of locations in id order
func (r *Registry) Locations(
	ctx context.Context,
	offset int,
	limit int,
) ([]models.Location, error) {
	var ret []models.Location
	err := r.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = r.db.GetLocations(offset, limit, txn)
		return err
	})
	return ret, err
}

// Voter returns the roster entry for an account, which is the zero voter
// if the account was never enrolled
func (r *Registry) Voter(
	ctx context.Context,
	id account.Identity,
) (models.Voter, error) {
	var ret models.Voter
	err := r.engine.Query(ctx, func(txn *database.Txn) error {
		var err error
		ret, err = r.db.GetVoter(id, txn)
		return err
	})
	return ret, err
}
