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

package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
)

var ErrUnknownWitness = errors.New("unknown witness token")

// resolveWitness builds the witness set of a request from its
// X-Forge-Witness headers. Each header may hold several comma separated
// tokens, optionally prefixed with "Bearer".
func (s *Server) resolveWitness(r *http.Request) (auth.WitnessSet, error) {
	ret := auth.NewWitnessSet()
	for _, header := range r.Header.Values(WitnessHeader) {
		for token := range strings.SplitSeq(header, ",") {
			token = strings.TrimSpace(token)
			token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
			if token == "" {
				continue
			}
			id, ok := s.lookupWitness(token)
			if !ok {
				return nil, ErrUnknownWitness
			}
			ret[id] = struct{}{}
		}
	}
	return ret, nil
}

// lookupWitness compares token against every configured token in constant
// time, so response timing does not leak how much of a token matched
func (s *Server) lookupWitness(token string) (account.Identity, bool) {
	var ret account.Identity
	found := false
	for configured, id := range s.config.Witnesses {
		if subtle.ConstantTimeCompare([]byte(configured), []byte(token)) == 1 {
			ret = id
			found = true
		}
	}
	return ret, found
}
