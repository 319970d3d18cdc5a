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

package account

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// IdentitySize is the length of an account script hash
const IdentitySize = 20

// AddressVersion is the version byte prepended to identities in their
// base58check address form
const AddressVersion byte = 0x35

var (
	ErrInvalidIdentity = errors.New("invalid account identity")
	ErrInvalidAddress  = errors.New("invalid account address")
)

// Identity is a 20-byte account script hash. The zero value is the null
// identity, used as the sender of mints and the recipient of burns.
type Identity [IdentitySize]byte

// Zero is the null identity
var Zero Identity

// IsZero returns true for the null identity
func (i Identity) IsZero() bool {
	return i == Zero
}

// Bytes returns a copy of the identity bytes
func (i Identity) Bytes() []byte {
	ret := make([]byte, IdentitySize)
	copy(ret, i[:])
	return ret
}

// Hex returns the hex-encoded script hash
func (i Identity) Hex() string {
	return hex.EncodeToString(i[:])
}

// String returns the base58check address for the identity
func (i Identity) String() string {
	return base58.CheckEncode(i[:], AddressVersion)
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = tmp
	return nil
}

// FromBytes builds an identity from a raw 20-byte script hash
func FromBytes(data []byte) (Identity, error) {
	var ret Identity
	if len(data) != IdentitySize {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidIdentity,
			IdentitySize,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// FromAddress decodes a base58check address
func FromAddress(address string) (Identity, error) {
	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if version != AddressVersion {
		return Identity{}, fmt.Errorf(
			"%w: unexpected version byte 0x%02x",
			ErrInvalidAddress,
			version,
		)
	}
	ret, err := FromBytes(payload)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return ret, nil
}

// Parse accepts either a base58check address or a hex script hash, with or
// without a 0x prefix
func Parse(input string) (Identity, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Identity{}, ErrInvalidIdentity
	}
	hexInput := strings.TrimPrefix(input, "0x")
	if len(hexInput) == IdentitySize*2 {
		if data, err := hex.DecodeString(hexInput); err == nil {
			return FromBytes(data)
		}
	}
	return FromAddress(input)
}

// MustParse is like Parse but panics on error. It is intended for constants
// and tests.
func MustParse(input string) Identity {
	ret, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return ret
}
