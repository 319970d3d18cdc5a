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

package sqlite_test

import (
	"testing"

	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/forge/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = []byte("aaaaaaaaaaaaaaaaaaaa")
	bob   = []byte("bbbbbbbbbbbbbbbbbbbb")
)

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	for _, val := range []int64{1000, 2000} {
		txn := store.Transaction()
		require.NoError(t, store.SetCommitTimestamp(val, txn))
		require.NoError(t, txn.Commit())
		ts, err = store.GetCommitTimestamp()
		require.NoError(t, err)
		assert.Equal(t, val, ts)
	}
}

func TestInMemoryStoresAreIsolated(t *testing.T) {
	store1 := newTestStore(t)
	store2 := newTestStore(t)

	txn := store1.Transaction()
	require.NoError(t, store1.SetCommitTimestamp(1234, txn))
	require.NoError(t, txn.Commit())

	ts, err := store2.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
}

func TestNotificationsFilter(t *testing.T) {
	store := newTestStore(t)
	locationID := types.Uint64(1)
	entries := []models.Notification{
		{
			InvocationID: "inv-1",
			Type:         models.NotificationTypeTransfer,
			To:           alice,
			Amount:       100,
			Timestamp:    1,
		},
		{
			InvocationID: "inv-2",
			Type:         models.NotificationTypeTransfer,
			From:         alice,
			To:           bob,
			Amount:       40,
			Timestamp:    2,
		},
		{
			InvocationID: "inv-3",
			Type:         models.NotificationTypeVote,
			From:         bob,
			LocationID:   &locationID,
			Amount:       7,
			Timestamp:    3,
		},
	}
	txn := store.Transaction()
	require.NoError(t, store.AddNotifications(entries, txn))
	require.NoError(t, txn.Commit())

	all, err := store.GetNotifications(models.NotificationFilter{}, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "inv-1", all[0].InvocationID)
	assert.Nil(t, all[0].From)

	aliceEntries, err := store.GetNotifications(
		models.NotificationFilter{Account: alice},
		nil,
	)
	require.NoError(t, err)
	assert.Len(t, aliceEntries, 2)

	votes, err := store.GetNotifications(
		models.NotificationFilter{Type: models.NotificationTypeVote},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.NotNil(t, votes[0].LocationID)
	assert.Equal(t, locationID, *votes[0].LocationID)
	assert.Equal(t, types.Uint64(7), votes[0].Amount)

	id := uint64(1)
	byLocation, err := store.GetNotifications(
		models.NotificationFilter{LocationID: &id},
		nil,
	)
	require.NoError(t, err)
	assert.Len(t, byLocation, 1)

	latest, err := store.GetNotifications(
		models.NotificationFilter{Descending: true, Limit: 1},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "inv-3", latest[0].InvocationID)
}

func TestRollbackDiscardsNotifications(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.AddNotifications(
		[]models.Notification{{Type: models.NotificationTypeDeploy}},
		txn,
	))
	require.NoError(t, txn.Rollback())
	// Finished transactions cannot be reused
	require.Error(t, store.AddNotifications(
		[]models.Notification{{Type: models.NotificationTypeDeploy}},
		txn,
	))

	all, err := store.GetNotifications(models.NotificationFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNotificationMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	store, err := sqlite.New("", nil, reg)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.AddNotifications(
		[]models.Notification{
			{Type: models.NotificationTypeDeploy},
			{Type: models.NotificationTypeTransfer},
		},
		nil,
	))
	count, err := testutil.GatherAndCount(reg, "database_metadata_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFileBackedStore(t *testing.T) {
	dataDir := t.TempDir()
	store, err := sqlite.New(dataDir, nil, nil)
	require.NoError(t, err)
	txn := store.Transaction()
	require.NoError(t, store.SetCommitTimestamp(42, txn))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())

	store, err = sqlite.New(dataDir, nil, nil)
	require.NoError(t, err)
	defer store.Close()
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}
