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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// EnvVarPrefix is prepended to plugin option environment variable names
const EnvVarPrefix = "FORGE_DATABASE"

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

// flagName returns the command line flag name for a plugin option, such as
// "blob-badger-data-dir"
func (p *PluginOption) flagName(pluginType PluginType, pluginName string) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		PluginTypeName(pluginType),
		pluginName,
		p.Name,
	)
}

// envVarName returns the environment variable name for a plugin option, such
// as "FORGE_DATABASE_BLOB_BADGER_DATA_DIR"
func (p *PluginOption) envVarName(pluginType PluginType, pluginName string) string {
	ret := fmt.Sprintf(
		"%s_%s_%s_%s",
		EnvVarPrefix,
		PluginTypeName(pluginType),
		pluginName,
		p.Name,
	)
	ret = strings.ToUpper(strings.ReplaceAll(ret, "-", "_"))
	return ret
}

func (p *PluginOption) AddToFlagSet(
	fs *pflag.FlagSet,
	pluginType PluginType,
	pluginName string,
) error {
	flagName := p.flagName(pluginType, pluginName)
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		defaultValue, _ := p.DefaultValue.(string)
		fs.StringVar(dest, flagName, defaultValue, p.Description)
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		defaultValue, _ := p.DefaultValue.(bool)
		fs.BoolVar(dest, flagName, defaultValue, p.Description)
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		defaultValue, _ := p.DefaultValue.(int)
		fs.IntVar(dest, flagName, defaultValue, p.Description)
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		defaultValue, _ := p.DefaultValue.(uint64)
		fs.Uint64Var(dest, flagName, defaultValue, p.Description)
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, p.Name)
	}
	return nil
}

// ProcessEnvVar sets the option from its environment variable, if present
func (p *PluginOption) ProcessEnvVar(
	pluginType PluginType,
	pluginName string,
) error {
	envVal, ok := os.LookupEnv(p.envVarName(pluginType, pluginName))
	if !ok {
		return nil
	}
	return p.setFromString(envVal)
}

// ProcessConfig sets the option from a parsed config file section, if present
func (p *PluginOption) ProcessConfig(pluginData map[string]any) error {
	val, ok := pluginData[p.Name]
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case string:
		return p.setFromString(v)
	case bool:
		return p.setFromString(strconv.FormatBool(v))
	case int:
		return p.setFromString(strconv.Itoa(v))
	case int64:
		return p.setFromString(strconv.FormatInt(v, 10))
	case uint64:
		return p.setFromString(strconv.FormatUint(v, 10))
	default:
		return fmt.Errorf("unsupported value type %T for option %s", val, p.Name)
	}
}

func (p *PluginOption) setFromString(val string) error {
	switch p.Type {
	case PluginOptionTypeString:
		dest, ok := p.Dest.(*string)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		*dest = val
	case PluginOptionTypeBool:
		dest, ok := p.Dest.(*bool)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		tmp, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool value for option %s: %w", p.Name, err)
		}
		*dest = tmp
	case PluginOptionTypeInt:
		dest, ok := p.Dest.(*int)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		tmp, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int value for option %s: %w", p.Name, err)
		}
		*dest = tmp
	case PluginOptionTypeUint:
		dest, ok := p.Dest.(*uint64)
		if !ok || dest == nil {
			return fmt.Errorf("invalid destination for option %s", p.Name)
		}
		tmp, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint value for option %s: %w", p.Name, err)
		}
		*dest = tmp
	default:
		return fmt.Errorf("unknown plugin option type %d for option %s", p.Type, p.Name)
	}
	return nil
}

// PopulateCmdlineOptions adds flags for all registered plugin options
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, p := range pluginEntries {
		for i := range p.Options {
			if err := p.Options[i].AddToFlagSet(fs, p.Type, p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessEnvVars applies environment variable overrides to all registered
// plugin options
func ProcessEnvVars() error {
	for _, p := range pluginEntries {
		for i := range p.Options {
			if err := p.Options[i].ProcessEnvVar(p.Type, p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessConfig applies config file values to registered plugin options. The
// map is keyed by plugin type name, then plugin name, then option name.
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, p := range pluginEntries {
		typeConfig, ok := pluginConfig[PluginTypeName(p.Type)]
		if !ok {
			continue
		}
		pluginData, ok := typeConfig[p.Name]
		if !ok {
			continue
		}
		for i := range p.Options {
			if err := p.Options[i].ProcessConfig(pluginData); err != nil {
				return err
			}
		}
	}
	return nil
}
