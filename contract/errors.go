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

// Package contract defines the failure taxonomy shared by the ledger and the
// governance registry. Every error here aborts the invocation that raised it
// with no state change.
package contract

import "errors"

// Error is a contract-level rejection. Callers match specific failures with
// errors.Is against the sentinels below.
type Error struct {
	reason string
}

func (e *Error) Error() string {
	return e.reason
}

// Reason returns a short label suitable for metrics
func (e *Error) Reason() string {
	return e.reason
}

func newError(reason string) *Error {
	return &Error{reason: reason}
}

var (
	ErrUnauthorized        = newError("unauthorized")
	ErrInsufficientBalance = newError("insufficient balance")
	ErrNotEnfranchised     = newError("not enfranchised")
	ErrAlreadyVoted        = newError("already voted")
	ErrNotFound            = newError("not found")
	ErrContractDestroyed   = newError("contract destroyed")
	ErrAlreadyDeployed     = newError("already deployed")
	ErrInvalidIdentity     = newError("invalid identity")
	ErrOverflow            = newError("amount overflow")
)

// Reason returns the rejection label for err, or false if err is not a
// contract rejection
func Reason(err error) (string, bool) {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.reason, true
	}
	return "", false
}
