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

package forge

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	dataDir        string
	blobPlugin     string
	metadataPlugin string
	genesisOwner   account.Identity
	// Bearer tokens accepted by the API, mapped to the identity they prove
	witnessTokens map[string]account.Identity
	// API listen address (empty = disabled)
	apiListenAddress     string
	autoDeploy           bool
	legacyEnrollmentGate bool
	requireVoterWitness  bool
	tracing              bool
	tracingStdout        bool
	shutdownTimeout      time.Duration
}

type ConfigOptionFunc func(*Config)

// NewConfig creates a new forge config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		blobPlugin:     database.DefaultBlobPlugin,
		metadataPlugin: database.DefaultMetadataPlugin,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *Config) validate() error {
	if c.blobPlugin == "" {
		return errors.New("no blob plugin specified")
	}
	if c.metadataPlugin == "" {
		return errors.New("no metadata plugin specified")
	}
	for token, id := range c.witnessTokens {
		if token == "" {
			return errors.New("empty witness token")
		}
		if id.IsZero() {
			return errors.New("witness token mapped to the zero identity")
		}
	}
	return nil
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithGenesisOwner specifies the identity that receives both roles and the
// genesis supply at deployment
func WithGenesisOwner(owner account.Identity) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisOwner = owner
	}
}

// WithAutoDeploy runs the genesis deployment on startup if the contract has
// not been deployed yet
func WithAutoDeploy(autoDeploy bool) ConfigOptionFunc {
	return func(c *Config) {
		c.autoDeploy = autoDeploy
	}
}

// WithApiListenAddress specifies the listen address for the REST API. An
// empty address disables the API
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithWitnessTokens specifies the API bearer tokens and the identities they
// authorize as
func WithWitnessTokens(tokens map[string]account.Identity) ConfigOptionFunc {
	return func(c *Config) {
		c.witnessTokens = tokens
	}
}

// WithLegacyEnrollmentGate restores the enrollment rule that rejects any
// account with a stored weight of zero
func WithLegacyEnrollmentGate(enabled bool) ConfigOptionFunc {
	return func(c *Config) {
		c.legacyEnrollmentGate = enabled
	}
}

// WithRequireVoterWitness makes votes require the voter's own witness
func WithRequireVoterWitness(enabled bool) ConfigOptionFunc {
	return func(c *Config) {
		c.requireVoterWitness = enabled
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
