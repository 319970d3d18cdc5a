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

package database

import (
	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/types"
)

// AddNotifications writes journal entries as part of txn
func (d *Database) AddNotifications(
	notifications []models.Notification,
	txn *Txn,
) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	if err := txn.requireWrite(); err != nil {
		return err
	}
	return d.metadata.AddNotifications(notifications, txn.Metadata())
}

// GetNotifications queries the committed journal
func (d *Database) GetNotifications(
	filter models.NotificationFilter,
) ([]models.Notification, error) {
	return d.metadata.GetNotifications(filter, nil)
}
