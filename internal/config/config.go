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

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blinklabs-io/forge/account"
	"github.com/blinklabs-io/forge/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "forge.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type tempConfig struct {
	Config   *yaml.Node                `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	MetadataPlugin  string `yaml:"metadataPlugin"  envconfig:"FORGE_DATABASE_METADATA_PLUGIN"`
	BlobPlugin      string `yaml:"blobPlugin"      envconfig:"FORGE_DATABASE_BLOB_PLUGIN"`
	DatabasePath    string `yaml:"databasePath"                                              split_words:"true"`
	BindAddr        string `yaml:"bindAddr"                                                  split_words:"true"`
	GenesisOwner    string `yaml:"genesisOwner"                                              split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout"                                           split_words:"true"`
	// Bearer token to account address. The env var form is
	// token1:address1,token2:address2
	WitnessTokens map[string]string `yaml:"witnessTokens" split_words:"true"`
	// YAML file holding further witness tokens, optionally sops-encrypted
	WitnessTokensFile    string `yaml:"witnessTokensFile"    split_words:"true"`
	ApiPort              uint   `yaml:"apiPort"              split_words:"true"`
	MetricsPort          uint   `yaml:"metricsPort"          split_words:"true"`
	AutoDeploy           bool   `yaml:"autoDeploy"           split_words:"true"`
	LegacyEnrollmentGate bool   `yaml:"legacyEnrollmentGate" split_words:"true"`
	RequireVoterWitness  bool   `yaml:"requireVoterWitness"  split_words:"true"`
	Tracing              bool   `yaml:"tracing"`
	TracingStdout        bool   `yaml:"tracingStdout"        split_words:"true"`
}

func defaultConfig() *Config {
	return &Config{
		BindAddr:        "0.0.0.0",
		DatabasePath:    ".forge",
		ApiPort:         8080,
		MetricsPort:     12798,
		AutoDeploy:      true,
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

var globalConfig = defaultConfig()

// LoadConfig builds the configuration from defaults, the YAML config file
// and FORGE_* environment variables, in that order of precedence. When
// configFile is empty, ~/.forge/forge.yaml and /etc/forge/forge.yaml are
// tried.
func LoadConfig(configFile string) (*Config, error) {
	cfg := defaultConfig()
	if configFile == "" {
		// Check for config file in this path: ~/.forge/forge.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".forge", "forge.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/forge/forge.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/forge/forge.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	err := envconfig.Process("forge", cfg)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	if err := cfg.mergeWitnessTokensFile(); err != nil {
		return nil, err
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

func loadConfigFile(configFile string, cfg *Config) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	err = yaml.Unmarshal(buf, &tempCfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// If config section exists, use it for main config
	if tempCfg.Config != nil {
		// Decoding the node only touches the keys that are present, so
		// defaults survive
		if err := tempCfg.Config.Decode(cfg); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		err = yaml.Unmarshal(buf, cfg)
		if err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, blobConfig := splitPluginSection("blob", tempCfg.Database.Blob)
			if name != "" {
				cfg.BlobPlugin = name
			}
			mergePluginConfig(pluginConfig, "blob", blobConfig)
		}
		if tempCfg.Database.Metadata != nil {
			name, metadataConfig := splitPluginSection("metadata", tempCfg.Database.Metadata)
			if name != "" {
				cfg.MetadataPlugin = name
			}
			mergePluginConfig(pluginConfig, "metadata", metadataConfig)
		}
	}
	if len(pluginConfig) > 0 {
		err = plugin.ProcessConfig(pluginConfig)
		if err != nil {
			return fmt.Errorf(
				"error processing plugin config: %w",
				err,
			)
		}
	}
	return nil
}

// splitPluginSection separates the "plugin" key selecting the plugin from
// the per-plugin option maps in a database section
func splitPluginSection(
	sectionName string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var pluginName string
	if pluginVal, exists := section["plugin"]; exists {
		if name, ok := pluginVal.(string); ok {
			pluginName = name
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", sectionName, k, v)
		}
	}
	return pluginName, ret
}

func mergePluginConfig(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]map[string]any,
) {
	// Merge with existing config instead of overwriting
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = section
		return
	}
	maps.Copy(pluginConfig[pluginType], section)
}

// Validate checks the values that are parsed later
func (c *Config) Validate() error {
	if c.BlobPlugin == "" {
		return errors.New("no blob plugin specified")
	}
	if c.MetadataPlugin == "" {
		return errors.New("no metadata plugin specified")
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.GenesisOwnerIdentity(); err != nil {
		return err
	}
	if _, err := c.WitnessIdentities(); err != nil {
		return err
	}
	return nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdownTimeout %q: %w", c.ShutdownTimeout, err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid shutdownTimeout %q: must be positive", c.ShutdownTimeout)
	}
	return ret, nil
}

// GenesisOwnerIdentity returns the configured genesis owner, or the zero
// identity when none is set
func (c *Config) GenesisOwnerIdentity() (account.Identity, error) {
	if c.GenesisOwner == "" {
		return account.Zero, nil
	}
	ret, err := account.Parse(c.GenesisOwner)
	if err != nil {
		return account.Zero, fmt.Errorf("invalid genesisOwner: %w", err)
	}
	return ret, nil
}

// WitnessIdentities resolves the configured witness tokens to identities
func (c *Config) WitnessIdentities() (map[string]account.Identity, error) {
	ret := make(map[string]account.Identity, len(c.WitnessTokens))
	for token, address := range c.WitnessTokens {
		if token == "" {
			return nil, errors.New("empty witness token")
		}
		id, err := account.Parse(address)
		if err != nil {
			return nil, fmt.Errorf("invalid address for witness token: %w", err)
		}
		if id.IsZero() {
			return nil, errors.New("witness token mapped to the zero identity")
		}
		ret[token] = id
	}
	return ret, nil
}

// ApiListenAddress returns the REST API listen address, or an empty string
// when the API is disabled
func (c *Config) ApiListenAddress() string {
	if c.ApiPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.BindAddr, strconv.FormatUint(uint64(c.ApiPort), 10))
}

func GetConfig() *Config {
	return globalConfig
}
