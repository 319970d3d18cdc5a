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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/forge/database/models"
	"github.com/blinklabs-io/forge/database/plugin"
	"github.com/blinklabs-io/forge/database/types"
	"gorm.io/gorm"
)

// MetadataStore holds the notification journal alongside the blob state
type MetadataStore interface {
	Close() error
	DB() *gorm.DB
	Transaction() types.Txn
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(timestamp int64, txn types.Txn) error

	AddNotifications(notifications []models.Notification, txn types.Txn) error
	GetNotifications(
		filter models.NotificationFilter,
		txn types.Txn,
	) ([]models.Notification, error)
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	runtimeOpts plugin.RuntimeOptions,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		runtimeOpts,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
