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

package auth_test

import (
	"testing"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = account.Identity{0x0a}
	admin = account.Identity{0x0b}
	other = account.Identity{0x0c}
)

func newRoles(t *testing.T, setup bool) *auth.Roles {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	if setup {
		require.NoError(t, db.Transaction(true).Do(func(txn *database.Txn) error {
			if err := db.SetOwner(owner, txn); err != nil {
				return err
			}
			return db.SetAdministrator(admin, txn)
		}))
	}
	return auth.NewRoles(db)
}

func TestWitnessSet(t *testing.T) {
	ws := auth.NewWitnessSet(other, owner, account.Zero)
	assert.True(t, ws.IsAuthorizedAs(owner))
	assert.False(t, ws.IsAuthorizedAs(admin))
	// The zero identity is never authorized, even when listed
	assert.False(t, ws.IsAuthorizedAs(account.Zero))
	assert.Equal(t, []account.Identity{account.Zero, owner, other}, ws.Identities())
}

func TestRoleChecks(t *testing.T) {
	roles := newRoles(t, true)
	testDefs := []struct {
		witness auth.Authorizer
		isOwner bool
		isAdmin bool
	}{
		{witness: auth.NewWitnessSet(owner), isOwner: true},
		{witness: auth.NewWitnessSet(admin), isAdmin: true},
		{witness: auth.NewWitnessSet(owner, admin), isOwner: true, isAdmin: true},
		{witness: auth.NewWitnessSet(other)},
		{witness: auth.NewWitnessSet()},
		{witness: nil},
		{
			witness: auth.AuthorizerFunc(func(id account.Identity) bool { return id == admin }),
			isAdmin: true,
		},
	}
	for _, testDef := range testDefs {
		isOwner, err := roles.IsOwner(testDef.witness, nil)
		require.NoError(t, err)
		assert.Equal(t, testDef.isOwner, isOwner)
		isAdmin, err := roles.IsAdministrator(testDef.witness, nil)
		require.NoError(t, err)
		assert.Equal(t, testDef.isAdmin, isAdmin)
		if !testDef.isOwner {
			require.ErrorIs(t, roles.RequireOwner(testDef.witness, nil), contract.ErrUnauthorized)
		}
		if !testDef.isAdmin {
			require.ErrorIs(t, roles.RequireAdministrator(testDef.witness, nil), contract.ErrUnauthorized)
		}
	}
}

func TestUnsetRolesRefuseEverything(t *testing.T) {
	roles := newRoles(t, false)
	// A witness claiming every identity, including the zero one
	everyone := auth.AuthorizerFunc(func(account.Identity) bool { return true })
	ownerId, err := roles.GetOwner(nil)
	require.NoError(t, err)
	assert.True(t, ownerId.IsZero())
	require.ErrorIs(t, roles.RequireOwner(everyone, nil), contract.ErrUnauthorized)
	require.ErrorIs(t, roles.RequireAdministrator(everyone, nil), contract.ErrUnauthorized)
}
