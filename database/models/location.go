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

import (
	"errors"

	"github.com/blinklabs-io/forge/account"
)

var ErrLocationNotFound = errors.New("location not found")

// Location is a posted map location and its accumulated vote total
type Location struct {
	_           struct{} `cbor:",toarray"`
	ID          uint64
	Owner       account.Identity
	Map         int64
	Name        string
	Description string
	X           string
	Y           string
	Tags        string
	Image       string
	VoteCount   uint64
}
