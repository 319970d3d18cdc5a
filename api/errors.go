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
	"errors"
	"net/http"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/contract"
)

// statusForError maps contract rejections to HTTP status codes. Anything
// else is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrUnknownWitness):
		return http.StatusUnauthorized
	case errors.Is(err, contract.ErrUnauthorized),
		errors.Is(err, contract.ErrNotEnfranchised):
		return http.StatusForbidden
	case errors.Is(err, contract.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contract.ErrAlreadyVoted),
		errors.Is(err, contract.ErrAlreadyDeployed):
		return http.StatusConflict
	case errors.Is(err, contract.ErrContractDestroyed):
		return http.StatusGone
	case errors.Is(err, contract.ErrInsufficientBalance),
		errors.Is(err, contract.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contract.ErrInvalidIdentity),
		errors.Is(err, account.ErrInvalidIdentity),
		errors.Is(err, account.ErrInvalidAddress),
		errors.Is(err, ErrInvalidPaginationParameters),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeContractError writes the response for a failed request. Internal
// errors are logged and their details withheld from the client.
func (s *Server) writeContractError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
