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

package database_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAlice = account.Identity{0x01}
	testBob   = account.Identity{0x02}
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBalancesAndSupply(t *testing.T) {
	db := newTestDB(t)

	bal, err := db.GetBalance(testAlice, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)

	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.SetBalance(testAlice, 500, txn); err != nil {
			return err
		}
		if err := db.SetBalance(testBob, 0, txn); err != nil {
			return err
		}
		return db.SetTotalSupply(500, txn)
	})
	require.NoError(t, err)

	bal, err = db.GetBalance(testAlice, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bal)
	supply, err := db.GetTotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), supply)

	balances, err := db.GetBalances(nil)
	require.NoError(t, err)
	assert.Equal(t, map[account.Identity]uint64{testAlice: 500}, balances)
}

func TestDoRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	testErr := errors.New("boom")
	committed := false
	txn := db.Transaction(true)
	txn.OnCommit(func() { committed = true })
	err := txn.Do(func(txn *database.Txn) error {
		if err := db.SetBalance(testAlice, 10, txn); err != nil {
			return err
		}
		if err := db.AddNotifications(
			[]models.Notification{{Type: models.NotificationTypeTransfer}},
			txn,
		); err != nil {
			return err
		}
		return testErr
	})
	require.ErrorIs(t, err, testErr)
	assert.False(t, committed)

	bal, err := db.GetBalance(testAlice, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)
	notifications, err := db.GetNotifications(models.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestCommitHooksAndJournal(t *testing.T) {
	db := newTestDB(t)
	committed := false
	txn := db.Transaction(true)
	txn.OnCommit(func() { committed = true })
	err := txn.Do(func(txn *database.Txn) error {
		return db.AddNotifications(
			[]models.Notification{
				{
					InvocationID: "abc",
					Type:         models.NotificationTypeTransfer,
					To:           testAlice.Bytes(),
					Amount:       5,
				},
			},
			txn,
		)
	})
	require.NoError(t, err)
	assert.True(t, committed)
	notifications, err := db.GetNotifications(models.NotificationFilter{Account: testAlice.Bytes()})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "abc", notifications[0].InvocationID)
}

func TestReadOnlyTxnRejectsWrites(t *testing.T) {
	db := newTestDB(t)
	txn := db.ReadTransaction()
	defer txn.Release()
	require.ErrorIs(t, db.SetBalance(testAlice, 1, txn), types.ErrReadOnlyTxn)
	require.ErrorIs(t, db.SetBalance(testAlice, 1, nil), types.ErrNilTxn)
}

func TestRolesVotersLocations(t *testing.T) {
	db := newTestDB(t)
	owner, err := db.GetOwner(nil)
	require.NoError(t, err)
	assert.True(t, owner.IsZero())

	loc := &models.Location{
		ID:    1,
		Owner: testBob,
		Map:   3,
		Name:  "Tower",
		X:     "10",
		Y:     "20",
	}
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.SetOwner(testAlice, txn); err != nil {
			return err
		}
		if err := db.SetAdministrator(testBob, txn); err != nil {
			return err
		}
		if err := db.SetVoter(testBob, models.Voter{Weight: 4, Enfranchised: true}, txn); err != nil {
			return err
		}
		if err := db.SetLocation(loc, txn); err != nil {
			return err
		}
		return db.SetLocationCount(1, txn)
	})
	require.NoError(t, err)

	owner, err = db.GetOwner(nil)
	require.NoError(t, err)
	assert.Equal(t, testAlice, owner)
	admin, err := db.GetAdministrator(nil)
	require.NoError(t, err)
	assert.Equal(t, testBob, admin)

	voter, err := db.GetVoter(testBob, nil)
	require.NoError(t, err)
	assert.True(t, voter.CanVote())
	assert.False(t, voter.HasVoted())
	unknown, err := db.GetVoter(testAlice, nil)
	require.NoError(t, err)
	assert.Equal(t, models.Voter{}, unknown)

	got, err := db.GetLocation(1, nil)
	require.NoError(t, err)
	assert.Equal(t, loc, got)
	_, err = db.GetLocation(2, nil)
	require.ErrorIs(t, err, models.ErrLocationNotFound)
	count, err := db.GetLocationCount(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	locations, err := db.GetLocations(0, 0, nil)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Tower", locations[0].Name)
	locations, err = db.GetLocations(1, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestDestroyState(t *testing.T) {
	db := newTestDB(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.SetDeployed(txn); err != nil {
			return err
		}
		if err := db.SetOwner(testAlice, txn); err != nil {
			return err
		}
		if err := db.SetBalance(testAlice, 42, txn); err != nil {
			return err
		}
		if err := db.SetTotalSupply(42, txn); err != nil {
			return err
		}
		return db.SetContractCode(&models.ContractCode{Code: []byte{0xde, 0xad}, Version: 1}, txn)
	})
	require.NoError(t, err)
	code, err := db.GetContractCode(nil)
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.Equal(t, uint64(1), code.Version)

	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.DestroyState(txn)
	})
	require.NoError(t, err)

	destroyed, err := db.IsDestroyed(nil)
	require.NoError(t, err)
	assert.True(t, destroyed)
	deployed, err := db.IsDeployed(nil)
	require.NoError(t, err)
	assert.False(t, deployed)
	bal, err := db.GetBalance(testAlice, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)
	owner, err := db.GetOwner(nil)
	require.NoError(t, err)
	assert.True(t, owner.IsZero())
	code, err = db.GetContractCode(nil)
	require.NoError(t, err)
	assert.Nil(t, code)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.SetTotalSupply(1, txn)
	}))
	// Advance only the metadata timestamp
	mdTxn := db.Metadata().Transaction()
	require.NoError(t, db.Metadata().SetCommitTimestamp(1, mdTxn))
	require.NoError(t, mdTxn.Commit())
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.Error(t, err)
	var tsErr database.CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, int64(1), tsErr.MetadataTimestamp)
	require.NotNil(t, db)
	require.NoError(t, db.RecoverCommitTimestamp())
	require.NoError(t, db.Close())

	// Recovery sticks across reopen and keeps the blob state
	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close()
	supply, err := db.GetTotalSupply(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), supply)
}

func TestReopenPersistentState(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.SetBalance(testBob, 77, txn)
	}))
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close()
	bal, err := db.GetBalance(testBob, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), bal)
}

func TestUpdateHelpers(t *testing.T) {
	db := newTestDB(t)
	testErr := errors.New("rejected")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.SetLocation(&models.Location{ID: 0, Name: "Plaza"}, txn); err != nil {
			return err
		}
		if err := db.UpdateVoter(testAlice, func(v *models.Voter) error {
			v.Weight = 1
			v.Enfranchised = true
			return nil
		}, txn); err != nil {
			return err
		}
		return db.UpdateLocation(0, func(l *models.Location) error {
			l.VoteCount += 1
			return nil
		}, txn)
	})
	require.NoError(t, err)

	// A rejected update leaves the stored record untouched
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.UpdateVoter(testAlice, func(v *models.Voter) error {
			v.Weight = 0
			return testErr
		}, txn)
	})
	require.ErrorIs(t, err, testErr)

	voter, err := db.GetVoter(testAlice, nil)
	require.NoError(t, err)
	assert.True(t, voter.CanVote())
	location, err := db.GetLocation(0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), location.VoteCount)
	assert.Equal(t, "Plaza", location.Name)

	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.UpdateLocation(5, func(*models.Location) error { return nil }, txn)
	})
	require.ErrorIs(t, err, models.ErrLocationNotFound)
}
