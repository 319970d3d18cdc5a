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

package models

// Voter is the governance roster entry for an account. A voter that has never
// been written reads back as the zero value.
type Voter struct {
	_            struct{} `cbor:",toarray"`
	Weight       uint64
	Votes        uint64
	Enfranchised bool
}

// CanVote reports whether the voter holds a non-zero voting entitlement
func (v Voter) CanVote() bool {
	return v.Enfranchised && v.Weight > 0
}

// HasVoted reports whether the voter has already cast its vote
func (v Voter) HasVoted() bool {
	return v.Votes > 0
}
