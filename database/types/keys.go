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

package types

import (
	"encoding/binary"
	"slices"
)

// Contract state lives in a single key-value namespace partitioned by
// one-byte prefixes
const (
	TotalSupplyKeyPrefix byte = 0x00
	BalanceKeyPrefix     byte = 0x01
	ContractKeyPrefix    byte = 0x02
	VoterKeyPrefix       byte = 0x03
	LocationKeyPrefix    byte = 0x04
)

// Keys under ContractKeyPrefix
const (
	OwnerKeyName         = "owner"
	AdminKeyName         = "admin"
	LocationCountKeyName = "locationCount"
	DeployedKeyName      = "deployed"
	DestroyedKeyName     = "destroyed"
	ContractCodeKeyName  = "code"
)

// CommitTimestampKey sits outside the contract prefixes so that destroying
// contract state leaves it in place
var CommitTimestampKey = []byte("metadata_commit_timestamp")

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func TotalSupplyKey() []byte {
	return []byte{TotalSupplyKeyPrefix}
}

func BalanceKey(account []byte) []byte {
	return slices.Concat([]byte{BalanceKeyPrefix}, account)
}

func ContractKey(name string) []byte {
	return slices.Concat([]byte{ContractKeyPrefix}, []byte(name))
}

func VoterKey(account []byte) []byte {
	return slices.Concat([]byte{VoterKeyPrefix}, account)
}

// LocationKey uses a big-endian id so that iteration order matches id order
func LocationKey(id uint64) []byte {
	return slices.Concat([]byte{LocationKeyPrefix}, Uint64ToBytes(id))
}

// StatePrefixes returns every prefix that holds contract state
func StatePrefixes() [][]byte {
	return [][]byte{
		{TotalSupplyKeyPrefix},
		{BalanceKeyPrefix},
		{ContractKeyPrefix},
		{VoterKeyPrefix},
		{LocationKeyPrefix},
	}
}
