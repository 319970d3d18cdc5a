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

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"testing"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/api"
	"github.com/blinklabs-io/forge/contract"
	"github.com/blinklabs-io/forge/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVoter = account.Identity{0x42}

func runCommand(t *testing.T, dataDir string, args ...string) ([]byte, error) {
	t.Helper()
	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.Bytes(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, string(out), programName)
}

func TestListCommand(t *testing.T) {
	out, err := runCommand(t, t.TempDir(), "list")
	require.NoError(t, err)
	assert.Contains(t, string(out), "badger")
	assert.Contains(t, string(out), "sqlite")
}

func TestContractCommands(t *testing.T) {
	dataDir := t.TempDir()
	owner := ledger.DefaultGenesisOwner

	out, err := runCommand(t, dataDir, "deploy")
	require.NoError(t, err)
	var receipt api.ReceiptResponse
	require.NoError(t, json.Unmarshal(out, &receipt))
	assert.Equal(t, ledger.OpDeploy, receipt.Operation)
	assert.NotEmpty(t, receipt.InvocationID)

	// A second deployment is refused
	_, err = runCommand(t, dataDir, "deploy")
	require.ErrorIs(t, err, contract.ErrAlreadyDeployed)

	out, err = runCommand(t, dataDir, "balance-of", owner)
	require.NoError(t, err)
	var balance api.BalanceResponse
	require.NoError(t, json.Unmarshal(out, &balance))
	assert.Equal(t, strconv.FormatUint(ledger.GenesisSupply, 10), balance.Balance)

	// Minting needs the owner's witness
	_, err = runCommand(t, dataDir, "mint", testVoter.Hex(), "5")
	require.ErrorIs(t, err, contract.ErrUnauthorized)
	_, err = runCommand(t, dataDir, "mint", testVoter.Hex(), "5", "--witness", owner)
	require.NoError(t, err)

	out, err = runCommand(t, dataDir, "total-supply")
	require.NoError(t, err)
	var supply api.SupplyResponse
	require.NoError(t, json.Unmarshal(out, &supply))
	assert.Equal(t, strconv.FormatUint(ledger.GenesisSupply+5, 10), supply.TotalSupply)

	_, err = runCommand(t, dataDir, "mint", testVoter.Hex(), "lots", "--witness", owner)
	require.Error(t, err)
	_, err = runCommand(t, dataDir, "mint", testVoter.Hex(), "1", "--witness", "bogus")
	require.Error(t, err)

	out, err = runCommand(t, dataDir, "status")
	require.NoError(t, err)
	var status api.ContractResponse
	require.NoError(t, json.Unmarshal(out, &status))
	assert.True(t, status.Deployed)
	assert.Equal(t, owner, status.Owner)
	assert.Equal(t, owner, status.Administrator)
}

func TestGovernanceCommands(t *testing.T) {
	dataDir := t.TempDir()
	admin := ledger.DefaultGenesisOwner
	_, err := runCommand(t, dataDir, "deploy")
	require.NoError(t, err)

	out, err := runCommand(
		t, dataDir,
		"post", admin,
		"--name", "Harbour",
		"--x", "12",
		"--y", "34",
		"--witness", admin,
	)
	require.NoError(t, err)
	var post api.PostResponse
	require.NoError(t, json.Unmarshal(out, &post))
	assert.Equal(t, uint64(0), post.LocationID)

	_, err = runCommand(t, dataDir, "enroll", testVoter.Hex(), "--witness", admin)
	require.NoError(t, err)
	_, err = runCommand(t, dataDir, "vote", "0", testVoter.Hex())
	require.NoError(t, err)
	_, err = runCommand(t, dataDir, "vote", "0", testVoter.Hex())
	require.ErrorIs(t, err, contract.ErrAlreadyVoted)

	out, err = runCommand(t, dataDir, "detail-of", "0")
	require.NoError(t, err)
	var location api.LocationResponse
	require.NoError(t, json.Unmarshal(out, &location))
	assert.Equal(t, "Harbour", location.Name)
	assert.Equal(t, uint64(1), location.VoteCount)

	out, err = runCommand(t, dataDir, "location-count")
	require.NoError(t, err)
	var count api.CountResponse
	require.NoError(t, json.Unmarshal(out, &count))
	assert.Equal(t, uint64(1), count.Count)

	_, err = runCommand(t, dataDir, "owner-of", "7")
	require.ErrorIs(t, err, contract.ErrNotFound)

	out, err = runCommand(t, dataDir, "notifications", "--type", "Vote")
	require.NoError(t, err)
	var notifications []api.NotificationResponse
	require.NoError(t, json.Unmarshal(out, &notifications))
	require.Len(t, notifications, 1)
	assert.Equal(t, testVoter.String(), notifications[0].From)
}
