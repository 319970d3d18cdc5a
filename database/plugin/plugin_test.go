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

package plugin_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/blinklabs-io/forge/database/plugin"
	"github.com/spf13/pflag"
)

var testOptions struct {
	dataDir   string
	cacheSize uint64
	gc        bool
	workers   int
}

func registerOptionPlugin(name string) {
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               name,
		NewFromOptionsFunc: newMockPlugin,
		Options: []plugin.PluginOption{
			{
				Name:         "data-dir",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: ".forge",
				Dest:         &(testOptions.dataDir),
			},
			{
				Name:         "cache-size",
				Type:         plugin.PluginOptionTypeUint,
				DefaultValue: uint64(1024),
				Dest:         &(testOptions.cacheSize),
			},
			{
				Name:         "gc",
				Type:         plugin.PluginOptionTypeBool,
				DefaultValue: true,
				Dest:         &(testOptions.gc),
			},
			{
				Name:         "workers",
				Type:         plugin.PluginOptionTypeInt,
				DefaultValue: 2,
				Dest:         &(testOptions.workers),
			},
		},
	})
}

func TestSetPluginOption(t *testing.T) {
	name := "opt-" + t.Name()
	registerOptionPlugin(name)

	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", ""); err != nil {
		t.Fatalf("unexpected error setting data-dir: %v", err)
	}
	// Setting with wrong type should return an error
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", 123); err == nil {
		t.Fatalf("expected type error when setting data-dir with int, got nil")
	}
	// Setting an unknown option is a no-op (non-fatal) so should not return an error
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "does-not-exist", "x"); err != nil {
		t.Fatalf("unexpected error when setting unknown option: %v", err)
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "cache-size", 4096); err != nil {
		t.Fatalf("unexpected error setting cache-size: %v", err)
	}
	if testOptions.cacheSize != 4096 {
		t.Fatalf("expected cache-size 4096, got %d", testOptions.cacheSize)
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "cache-size", -1); err == nil {
		t.Fatalf("expected error setting negative cache-size")
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", "x"); err == nil {
		t.Fatalf("expected error when setting option for nonexistent plugin, got nil")
	}
}

func TestPopulateCmdlineOptions(t *testing.T) {
	name := "flags-" + t.Name()
	registerOptionPlugin(name)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := plugin.PopulateCmdlineOptions(fs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flagName := "metadata-" + name + "-data-dir"
	if fs.Lookup(flagName) == nil {
		t.Fatalf("expected flag %s to be registered", flagName)
	}
	if err := fs.Parse([]string{"--" + flagName, "/tmp/forge-test"}); err != nil {
		t.Fatalf("unexpected error parsing flags: %v", err)
	}
	if testOptions.dataDir != "/tmp/forge-test" {
		t.Fatalf("expected data dir to be set from flag, got %q", testOptions.dataDir)
	}
}

func TestProcessEnvVarsAndConfig(t *testing.T) {
	name := "env" + t.Name()
	registerOptionPlugin(name)
	t.Setenv("FORGE_DATABASE_METADATA_"+strings.ToUpper(name)+"_GC", "false")
	if err := plugin.ProcessEnvVars(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if testOptions.gc {
		t.Fatalf("expected gc to be disabled from env var")
	}
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			name: {
				"workers":    7,
				"cache-size": 99,
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if testOptions.workers != 7 || testOptions.cacheSize != 99 {
		t.Fatalf("config values not applied: %+v", testOptions)
	}
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {name: {"gc": "not-a-bool"}},
	})
	if err == nil {
		t.Fatalf("expected error for invalid bool")
	}
}

func TestErrorPlugin(t *testing.T) {
	testErr := errors.New("boom")
	p := plugin.NewErrorPlugin(testErr)
	if err := p.Start(); !errors.Is(err, testErr) {
		t.Fatalf("expected start error, got %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
}
