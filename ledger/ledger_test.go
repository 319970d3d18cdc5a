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

package ledger_test

import (
	"context"
	"math"
	"testing"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/engine"
	"github.com/blinklabs-io/forge/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genesisOwner = account.MustParse(ledger.DefaultGenesisOwner)
	alice        = account.Identity{0x01}
	bob          = account.Identity{0x02}
	mallory      = account.Identity{0x66}
	ownerWitness = auth.NewWitnessSet(genesisOwner)
)

type testLedger struct {
	*ledger.Ledger
	db       *database.Database
	registry *prometheus.Registry
}

func newTestLedger(t *testing.T, deploy bool) *testLedger {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	registry := prometheus.NewRegistry()
	eng, err := engine.New(engine.Config{Database: db})
	require.NoError(t, err)
	l, err := ledger.New(ledger.LedgerConfig{
		Engine:       eng,
		PromRegistry: registry,
	})
	require.NoError(t, err)
	if deploy {
		_, err := l.Deploy(context.Background())
		require.NoError(t, err)
	}
	return &testLedger{Ledger: l, db: db, registry: registry}
}

// requireConservation checks that the balances sum to the total supply
func requireConservation(t *testing.T, l *testLedger) {
	t.Helper()
	ctx := context.Background()
	balances, err := l.Balances(ctx)
	require.NoError(t, err)
	var sum uint64
	for _, bal := range balances {
		sum += bal
	}
	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	require.Equal(t, supply, sum)
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := ledger.New(ledger.LedgerConfig{})
	require.ErrorIs(t, err, ledger.ErrNilEngine)
}

func TestGenesisDeployment(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)

	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_100_000_000_000_000), supply)
	bal, err := l.BalanceOf(ctx, genesisOwner)
	require.NoError(t, err)
	assert.Equal(t, ledger.GenesisSupply, bal)
	owner, admin, err := l.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, genesisOwner, owner)
	assert.Equal(t, genesisOwner, admin)
	assert.Equal(t, "BBLE", l.Symbol())
	assert.Equal(t, uint8(8), l.Decimals())
	assert.Equal(
		t,
		float64(ledger.GenesisSupply),
		gaugeValue(t, l.registry, "forge_ledger_total_supply"),
	)
	requireConservation(t, l)

	_, err = l.Deploy(ctx)
	require.ErrorIs(t, err, contract.ErrAlreadyDeployed)
}

func TestUndeployedRefusesEverything(t *testing.T) {
	l := newTestLedger(t, false)
	_, err := l.Mint(context.Background(), ownerWitness, alice, 1)
	require.ErrorIs(t, err, contract.ErrUnauthorized)
}

func TestMint(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)

	receipt, err := l.Mint(ctx, ownerWitness, alice, 500)
	require.NoError(t, err)
	require.Len(t, receipt.Notifications, 1)
	n := receipt.Notifications[0]
	assert.Equal(t, models.NotificationTypeTransfer, n.Type)
	assert.Nil(t, n.From)
	assert.Equal(t, alice.Bytes(), n.To)
	assert.EqualValues(t, 500, n.Amount)

	bal, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bal)
	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.GenesisSupply+500, supply)
	requireConservation(t, l)

	// Minting nothing changes nothing and emits nothing
	receipt, err = l.Mint(ctx, ownerWitness, bob, 0)
	require.NoError(t, err)
	assert.Empty(t, receipt.Notifications)
	balances, err := l.Balances(ctx)
	require.NoError(t, err)
	assert.NotContains(t, balances, bob)
}

func TestMintOverflow(t *testing.T) {
	l := newTestLedger(t, true)
	_, err := l.Mint(context.Background(), ownerWitness, alice, math.MaxUint64)
	require.ErrorIs(t, err, contract.ErrOverflow)
	requireConservation(t, l)
}

func TestBurn(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)
	_, err := l.Mint(ctx, ownerWitness, alice, 500)
	require.NoError(t, err)

	_, err = l.Burn(ctx, ownerWitness, alice, 501)
	require.ErrorIs(t, err, contract.ErrInsufficientBalance)

	receipt, err := l.Burn(ctx, ownerWitness, alice, 500)
	require.NoError(t, err)
	require.Len(t, receipt.Notifications, 1)
	assert.Equal(t, alice.Bytes(), receipt.Notifications[0].From)
	assert.Nil(t, receipt.Notifications[0].To)

	// Zero balances are removed entirely
	balances, err := l.Balances(ctx)
	require.NoError(t, err)
	assert.NotContains(t, balances, alice)
	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.GenesisSupply, supply)
	requireConservation(t, l)
}

func TestTransferOwnerOverride(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)
	_, err := l.Mint(ctx, ownerWitness, alice, 300)
	require.NoError(t, err)

	// Only the owner witnesses, not alice
	_, err = l.Transfer(ctx, ownerWitness, alice, bob, 120)
	require.NoError(t, err)
	aliceBal, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	bobBal, err := l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(180), aliceBal)
	assert.Equal(t, uint64(120), bobBal)

	_, err = l.Transfer(ctx, ownerWitness, alice, bob, 181)
	require.ErrorIs(t, err, contract.ErrInsufficientBalance)

	// Self-transfer keeps the balance
	receipt, err := l.Transfer(ctx, ownerWitness, bob, bob, 100)
	require.NoError(t, err)
	assert.Len(t, receipt.Notifications, 1)
	bobBal, err = l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), bobBal)

	// The sender's own witness is not enough
	_, err = l.Transfer(ctx, auth.NewWitnessSet(alice), alice, bob, 1)
	require.ErrorIs(t, err, contract.ErrUnauthorized)

	_, err = l.Transfer(ctx, ownerWitness, alice, account.Zero, 1)
	require.ErrorIs(t, err, contract.ErrInvalidIdentity)
	requireConservation(t, l)
}

func TestDeniedCallsLeaveStateIdentical(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)
	_, err := l.Mint(ctx, ownerWitness, alice, 500)
	require.NoError(t, err)
	before, err := l.db.DumpState(nil)
	require.NoError(t, err)

	witnesses := []auth.Authorizer{
		nil,
		auth.NewWitnessSet(),
		auth.NewWitnessSet(mallory),
		auth.NewWitnessSet(alice, bob),
	}
	for _, witness := range witnesses {
		_, err = l.Mint(ctx, witness, mallory, 500)
		require.ErrorIs(t, err, contract.ErrUnauthorized)
		_, err = l.Burn(ctx, witness, alice, 1)
		require.ErrorIs(t, err, contract.ErrUnauthorized)
		_, err = l.Transfer(ctx, witness, alice, mallory, 500)
		require.ErrorIs(t, err, contract.ErrUnauthorized)
		_, err = l.Update(ctx, witness, []byte{0x01}, "{}")
		require.ErrorIs(t, err, contract.ErrUnauthorized)
		_, err = l.Destroy(ctx, witness)
		require.ErrorIs(t, err, contract.ErrUnauthorized)
		_, err = l.SetOwner(ctx, witness, mallory)
		require.ErrorIs(t, err, contract.ErrUnauthorized)
	}

	after, err := l.db.DumpState(nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	bal, err := l.BalanceOf(ctx, mallory)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)
	_, err := l.Update(ctx, ownerWitness, []byte{0xde, 0xad}, `{"name":"forge"}`)
	require.NoError(t, err)
	_, err = l.Update(ctx, ownerWitness, []byte{0xbe, 0xef}, `{"name":"forge"}`)
	require.NoError(t, err)

	status, err := l.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Deployed)
	assert.False(t, status.Destroyed)
	assert.Equal(t, uint64(2), status.Version)

	// Running deploy in update mode must not mint again
	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.GenesisSupply, supply)
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)
	_, err := l.Destroy(ctx, ownerWitness)
	require.NoError(t, err)

	status, err := l.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Destroyed)
	supply, err := l.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Zero(t, supply)
	bal, err := l.BalanceOf(ctx, genesisOwner)
	require.NoError(t, err)
	assert.Zero(t, bal)

	_, err = l.Mint(ctx, ownerWitness, alice, 1)
	require.ErrorIs(t, err, contract.ErrContractDestroyed)
	_, err = l.Deploy(ctx)
	require.ErrorIs(t, err, contract.ErrContractDestroyed)
}

func TestSetOwner(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)

	_, err := l.SetOwner(ctx, ownerWitness, account.Zero)
	require.ErrorIs(t, err, contract.ErrInvalidIdentity)

	receipt, err := l.SetOwner(ctx, ownerWitness, alice)
	require.NoError(t, err)
	require.Len(t, receipt.Notifications, 1)
	assert.Equal(t, models.NotificationTypeOwnerChanged, receipt.Notifications[0].Type)

	// The old owner has lost its rights, the administrator is unchanged
	_, err = l.Mint(ctx, ownerWitness, bob, 1)
	require.ErrorIs(t, err, contract.ErrUnauthorized)
	_, err = l.Mint(ctx, auth.NewWitnessSet(alice), bob, 1)
	require.NoError(t, err)
	owner, admin, err := l.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	assert.Equal(t, genesisOwner, admin)
}

func TestCustomGenesisOwner(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	eng, err := engine.New(engine.Config{Database: db})
	require.NoError(t, err)
	l, err := ledger.New(ledger.LedgerConfig{Engine: eng, GenesisOwner: alice})
	require.NoError(t, err)
	_, err = l.Deploy(context.Background())
	require.NoError(t, err)
	bal, err := l.BalanceOf(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, ledger.GenesisSupply, bal)
}

func gaugeValue(
	t *testing.T,
	registry *prometheus.Registry,
	name string,
) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
