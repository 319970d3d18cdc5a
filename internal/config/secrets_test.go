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
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
	sopsapi "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	sopsage "github.com/getsops/sops/v3/age"
	scommon "github.com/getsops/sops/v3/cmd/sops/common"
	sopsconfig "github.com/getsops/sops/v3/config"
	yamlstore "github.com/getsops/sops/v3/stores/yaml"
	"github.com/getsops/sops/v3/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainWitnessTokens = `witnessTokens:
  owner-secret: "` + testAddress + `"
  alice-secret: "` + testAddress + `"
`

// newAgeIdentity generates an age key and makes it the sops decryption key
// for the rest of the test
func newAgeIdentity(t *testing.T) *age.X25519Identity {
	t.Helper()
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	t.Setenv("SOPS_AGE_KEY", identity.String())
	return identity
}

// encryptWithAge encrypts a YAML document with sops for an age recipient
func encryptWithAge(t *testing.T, plain string, recipient string) []byte {
	t.Helper()
	masterKey, err := sopsage.MasterKeyFromRecipient(recipient)
	require.NoError(t, err)
	store := yamlstore.NewStore(&sopsconfig.YAMLStoreConfig{})
	branches, err := store.LoadPlainFile([]byte(plain))
	require.NoError(t, err)
	tree := sopsapi.Tree{
		Branches: branches,
		Metadata: sopsapi.Metadata{
			KeyGroups: []sopsapi.KeyGroup{{masterKey}},
			Version:   version.Version,
		},
	}
	dataKey, errs := tree.GenerateDataKey()
	require.Empty(t, errs)
	require.NoError(t, scommon.EncryptTree(scommon.EncryptTreeOpts{
		DataKey: dataKey,
		Tree:    &tree,
		Cipher:  aes.NewCipher(),
	}))
	encrypted, err := store.EmitEncryptedFile(tree)
	require.NoError(t, err)
	return encrypted
}

func writeTokensFile(t *testing.T, content []byte) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "witness-tokens.yaml")
	require.NoError(t, os.WriteFile(tmpFile, content, 0o600))
	return tmpFile
}

func TestLoadWitnessTokensFilePlain(t *testing.T) {
	tokens, err := LoadWitnessTokensFile(writeTokensFile(t, []byte(plainWitnessTokens)))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"owner-secret": testAddress,
		"alice-secret": testAddress,
	}, tokens)
}

func TestLoadWitnessTokensFileSops(t *testing.T) {
	identity := newAgeIdentity(t)
	encrypted := encryptWithAge(t, plainWitnessTokens, identity.Recipient().String())
	assert.Contains(t, string(encrypted), "sops:")
	assert.NotContains(t, string(encrypted), testAddress)

	tokens, err := LoadWitnessTokensFile(writeTokensFile(t, encrypted))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"owner-secret": testAddress,
		"alice-secret": testAddress,
	}, tokens)
}

func TestLoadWitnessTokensFileWrongKey(t *testing.T) {
	identity := newAgeIdentity(t)
	encrypted := encryptWithAge(t, plainWitnessTokens, identity.Recipient().String())
	// Decrypting with an unrelated key must fail
	newAgeIdentity(t)
	_, err := LoadWitnessTokensFile(writeTokensFile(t, encrypted))
	require.Error(t, err)
}

func TestLoadConfigWitnessTokensFile(t *testing.T) {
	identity := newAgeIdentity(t)
	tokensFile := writeTokensFile(
		t,
		encryptWithAge(t, plainWitnessTokens, identity.Recipient().String()),
	)
	cfg, err := LoadConfig(writeConfigFile(t, `
witnessTokensFile: "`+tokensFile+`"
witnessTokens:
  inline-secret: "`+testAddress+`"
`))
	require.NoError(t, err)
	witnesses, err := cfg.WitnessIdentities()
	require.NoError(t, err)
	assert.Len(t, witnesses, 3)
	for _, token := range []string{"owner-secret", "alice-secret", "inline-secret"} {
		assert.Contains(t, witnesses, token)
	}
}

func TestLoadConfigWitnessTokensFileFromEnv(t *testing.T) {
	t.Setenv(
		"FORGE_WITNESS_TOKENS_FILE",
		writeTokensFile(t, []byte(plainWitnessTokens)),
	)
	cfg, err := LoadConfig(writeConfigFile(t, "{}\n"))
	require.NoError(t, err)
	assert.Contains(t, cfg.WitnessTokens, "owner-secret")
}

func TestLoadConfigWitnessTokensFileInvalid(t *testing.T) {
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "witnessTokens: [\n"},
		{name: "bad address", content: "witnessTokens:\n  secret: nope\n"},
		{name: "corrupt sops metadata", content: "witnessTokens:\n  secret: x\nsops:\n  version: 3.11.0\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			tokensFile := writeTokensFile(t, []byte(testDef.content))
			_, err := LoadConfig(writeConfigFile(t, `witnessTokensFile: "`+tokensFile+`"`+"\n"))
			assert.Error(t, err)
		})
	}
}
