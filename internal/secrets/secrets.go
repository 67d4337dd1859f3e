// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// resolves each credential against flag, environment and file sources.
// Each file in the directory holds one secret: the filename is the key name
// and the trimmed file contents are the value.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Key files recognised in the secrets directory.
const (
	OpenAIKey    = "openai-api-key"
	AnthropicKey = "anthropic-api-key"
	ScholarKey   = "semantic-scholar-api-key"
	NCBIKey      = "ncbi-api-key"
)

// EnvVars maps each key file to the conventional environment variable that
// may supply it instead.
var EnvVars = map[string]string{
	OpenAIKey:    "OPENAI_API_KEY",
	AnthropicKey: "ANTHROPIC_API_KEY",
	ScholarKey:   "SEMANTIC_SCHOLAR_API_KEY",
	NCBIKey:      "NCBI_API_KEY",
}

// Secrets is the set of values read from a secrets directory.
type Secrets map[string]string

// Load reads all regular, non-hidden files in dir. A missing directory is not
// an error and yields an empty set. Unreadable files produce a warning on
// warn and are skipped.
func Load(dir string, warn io.Writer) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Resolve returns the credential for key. An explicit value (flag or config
// file) wins, then the key's environment variable, then the secrets file.
func (s Secrets) Resolve(key, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env, ok := EnvVars[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	return s[key]
}
