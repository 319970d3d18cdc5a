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
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/forge/database/plugin"
	"github.com/blinklabs-io/forge/database/plugin/blob"
	"github.com/blinklabs-io/forge/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register storage plugins
	_ "github.com/blinklabs-io/forge/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/forge/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/forge/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/forge/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config holds the storage settings. An empty DataDir selects in-memory
// storage for the file-backed plugins.
type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
}

// Database pairs the blob store holding contract state with the metadata
// store holding the notification journal
type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	config   Config
}

// New opens both stores and verifies that they were last committed together
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	d := &Database{
		logger: config.Logger,
		config: *config,
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if d.config.BlobPlugin == "" {
		d.config.BlobPlugin = DefaultBlobPlugin
	}
	if d.config.MetadataPlugin == "" {
		d.config.MetadataPlugin = DefaultMetadataPlugin
	}
	// Plugins without a data-dir option ignore this
	if err := plugin.SetPluginOption(plugin.PluginTypeBlob, d.config.BlobPlugin, "data-dir", d.config.DataDir); err != nil {
		return nil, err
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, d.config.MetadataPlugin, "data-dir", d.config.DataDir); err != nil {
		return nil, err
	}
	runtimeOpts := plugin.RuntimeOptions{
		Logger:       d.logger,
		PromRegistry: config.PromRegistry,
	}
	blobStore, err := blob.New(d.config.BlobPlugin, runtimeOpts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	d.blob = blobStore
	metadataStore, err := metadata.New(d.config.MetadataPlugin, runtimeOpts)
	if err != nil {
		_ = blobStore.Close()
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	d.metadata = metadataStore
	if err := d.checkCommitTimestamp(); err != nil {
		// Database is available for recovery, so return it with error
		return d, err
	}
	d.logger.Debug(
		"opened database",
		"component", "database",
		"blob", d.config.BlobPlugin,
		"metadata", d.config.MetadataPlugin,
		"data_dir", d.config.DataDir,
	)
	return d, nil
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.config.DataDir
}

func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Transaction starts a transaction spanning both stores
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// ReadTransaction starts a read-only transaction on the blob store. State
// reads use this so that they do not hold a metadata connection.
func (d *Database) ReadTransaction() *Txn {
	return NewBlobOnlyTxn(d)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}
