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

package engine

import (
	"context"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/database"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/types"
)

// Invocation is the execution context handed to an InvokeFunc
type Invocation struct {
	ctx           context.Context
	engine        *Engine
	txn           *database.Txn
	witness       auth.Authorizer
	id            string
	operation     string
	notifications []models.Notification
	timestamp     int64
}

func (i *Invocation) Context() context.Context {
	return i.ctx
}

func (i *Invocation) ID() string {
	return i.id
}

func (i *Invocation) Operation() string {
	return i.operation
}

// Txn returns the read-write transaction backing the invocation
func (i *Invocation) Txn() *database.Txn {
	return i.txn
}

func (i *Invocation) DB() *database.Database {
	return i.engine.db
}

func (i *Invocation) Witness() auth.Authorizer {
	return i.witness
}

// CheckWitness reports whether id authorized the invocation
func (i *Invocation) CheckWitness(id account.Identity) bool {
	if i.witness == nil || id.IsZero() {
		return false
	}
	return i.witness.IsAuthorizedAs(id)
}

func (i *Invocation) RequireOwner() error {
	return i.engine.roles.RequireOwner(i.witness, i.txn)
}

func (i *Invocation) RequireAdministrator() error {
	return i.engine.roles.RequireAdministrator(i.witness, i.txn)
}

// Notify records a notification to be journaled with the invocation. The
// zero identity is stored as a nil account.
func (i *Invocation) Notify(
	notifType models.NotificationType,
	from account.Identity,
	to account.Identity,
	amount uint64,
	locationId *uint64,
) {
	n := models.Notification{
		InvocationID: i.id,
		Type:         notifType,
		Timestamp:    i.timestamp,
		Amount:       types.Uint64(amount),
	}
	if !from.IsZero() {
		n.From = from.Bytes()
	}
	if !to.IsZero() {
		n.To = to.Bytes()
	}
	if locationId != nil {
		tmpId := types.Uint64(*locationId)
		n.LocationID = &tmpId
	}
	i.notifications = append(i.notifications, n)
}
