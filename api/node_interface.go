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
	"context"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/auth"
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/engine"
	"github.com/blinklabs-io/forge/event"
	"github.com/blinklabs-io/forge/governance"
	"github.com/blinklabs-io/forge/ledger"
)

// Ledger is the token side of the contract, as used by the API. It is
// satisfied by *ledger.Ledger.
type Ledger interface {
	Symbol() string
	Decimals() uint8
	BalanceOf(context.Context, account.Identity) (uint64, error)
	TotalSupply(context.Context) (uint64, error)
	Roles(context.Context) (account.Identity, account.Identity, error)
	Status(context.Context) (ledger.Status, error)
	Mint(context.Context, auth.Authorizer, account.Identity, uint64) (*engine.Receipt, error)
	Burn(context.Context, auth.Authorizer, account.Identity, uint64) (*engine.Receipt, error)
	Transfer(
		context.Context,
		auth.Authorizer,
		account.Identity,
		account.Identity,
		uint64,
	) (*engine.Receipt, error)
	SetOwner(context.Context, auth.Authorizer, account.Identity) (*engine.Receipt, error)
	Update(context.Context, auth.Authorizer, []byte, string) (*engine.Receipt, error)
	Destroy(context.Context, auth.Authorizer) (*engine.Receipt, error)
}

// Registry is the governance side of the contract, as used by the API. It is
// satisfied by *governance.Registry.
type Registry interface {
	OwnerOf(context.Context, uint64) (account.Identity, error)
	DetailOf(context.Context, uint64) (*models.Location, error)
	LocationCount(context.Context) (uint64, error)
	Locations(ctx context.Context, offset int, limit int) ([]models.Location, error)
	Voter(context.Context, account.Identity) (models.Voter, error)
	Enroll(context.Context, auth.Authorizer, account.Identity) (*engine.Receipt, error)
	Vote(context.Context, auth.Authorizer, uint64, account.Identity) (*engine.Receipt, error)
	Post(context.Context, auth.Authorizer, governance.PostRequest) (*engine.Receipt, uint64, error)
	SetAdministrator(context.Context, auth.Authorizer, account.Identity) (*engine.Receipt, error)
}

// Journal gives read access to committed notifications. It is satisfied by
// *database.Database.
type Journal interface {
	GetNotifications(models.NotificationFilter) ([]models.Notification, error)
}

// Events delivers committed notifications to stream clients. It is
// satisfied by *event.EventBus.
type Events interface {
	RegisterSubscriber(event.EventType, event.Subscriber) event.EventSubscriberId
	Unsubscribe(event.EventType, event.EventSubscriberId)
}
