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
	"fmt"
	"maps"
	"os"

	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"
)

// witnessTokensFile is the layout of the file named by witnessTokensFile.
// The file may be encrypted with sops, in which case sops adds its metadata
// under the top-level "sops" key.
type witnessTokensFile struct {
	WitnessTokens map[string]string `yaml:"witnessTokens"`
	Sops          *yaml.Node        `yaml:"sops,omitempty"`
}

// LoadWitnessTokensFile reads bearer tokens from a YAML file, decrypting it
// with sops first when it carries sops metadata. Decryption keys come from
// the usual sops sources, such as SOPS_AGE_KEY or a cloud KMS.
func LoadWitnessTokensFile(path string) (map[string]string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading witness tokens file: %w", err)
	}
	var tokensFile witnessTokensFile
	if err := yaml.Unmarshal(buf, &tokensFile); err != nil {
		return nil, fmt.Errorf("error parsing witness tokens file: %w", err)
	}
	if tokensFile.Sops == nil {
		return tokensFile.WitnessTokens, nil
	}
	plain, err := decrypt.Data(buf, "yaml")
	if err != nil {
		return nil, fmt.Errorf("error decrypting witness tokens file: %w", err)
	}
	tokensFile = witnessTokensFile{}
	if err := yaml.Unmarshal(plain, &tokensFile); err != nil {
		return nil, fmt.Errorf("error parsing decrypted witness tokens file: %w", err)
	}
	return tokensFile.WitnessTokens, nil
}

// mergeWitnessTokensFile adds the tokens from WitnessTokensFile. Tokens set
// in the config file or environment take precedence.
func (c *Config) mergeWitnessTokensFile() error {
	if c.WitnessTokensFile == "" {
		return nil
	}
	fileTokens, err := LoadWitnessTokensFile(c.WitnessTokensFile)
	if err != nil {
		return err
	}
	merged := make(map[string]string, len(fileTokens)+len(c.WitnessTokens))
	maps.Copy(merged, fileTokens)
	maps.Copy(merged, c.WitnessTokens)
	c.WitnessTokens = merged
	return nil
}
