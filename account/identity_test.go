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

package account_test

import (
	"strings"
	"testing"

	"github.com/blinklabs-io/forge/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesisAddress = "NcRtxmtaNPTpFJQRuuWafFKRVgLfqbL2ub"

func TestFromAddressRoundTrip(t *testing.T) {
	id, err := account.FromAddress(genesisAddress)
	require.NoError(t, err)
	assert.False(t, id.IsZero())
	assert.Equal(t, genesisAddress, id.String())
}

func TestParseHex(t *testing.T) {
	id, err := account.FromAddress(genesisAddress)
	require.NoError(t, err)
	fromHex, err := account.Parse(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, fromHex)
	fromPrefixed, err := account.Parse("0x" + strings.ToUpper(id.Hex()))
	require.NoError(t, err)
	assert.Equal(t, id, fromPrefixed)
}

func TestParseInvalid(t *testing.T) {
	testDefs := []string{
		"",
		"not-an-address",
		// Corrupted checksum
		genesisAddress[:len(genesisAddress)-1] + "c",
		"abcd",
	}
	for _, input := range testDefs {
		_, err := account.Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestFromBytesLength(t *testing.T) {
	_, err := account.FromBytes(make([]byte, 19))
	require.ErrorIs(t, err, account.ErrInvalidIdentity)
	id, err := account.FromBytes(make([]byte, 20))
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}

func TestTextMarshal(t *testing.T) {
	id := account.MustParse(genesisAddress)
	text, err := id.MarshalText()
	require.NoError(t, err)
	var out account.Identity
	require.NoError(t, out.UnmarshalText(text))
	assert.Equal(t, id, out)
}
