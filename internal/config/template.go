package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Help describes each setting. It feeds the settings template and the CLI.
var Help = map[string]string{
	"default-model":  "Model title used when none is given.",
	"log-path":       "File receiving the prompt/completion log.",
	"history-path":   "SQLite database recording every request.",
	"cache-path":     "Directory holding cached remote model listings.",
	"cache-ttl":      "How long remote model listings stay cached.",
	"models":         "Addressable models, looked up by title.",
	"ca-bundle-path": "Extra CA certificates: a path or a list of paths.",
	"proxy":          "Proxy URL; leave empty to connect directly.",
	"verify-ssl":     "Set to false to skip TLS verification.",
	"timeout":        "Connect, header and body timeout in seconds (default 7200).",
	"headers":        "Headers added to every request (request headers win).",
}

const settingsTemplate = `# {{ index .Help "default-model" }}
default-model: gpt-4o
# {{ index .Help "cache-ttl" }}
cache-ttl: 1h
# {{ index .Help "log-path" }}
# log-path: /tmp/llmconn.log
# {{ index .Help "models" }}
models:
  - title: gpt-4o
    provider: openai
    model: gpt-4o
    api-base: https://api.openai.com/v1
    api-key-env: OPENAI_API_KEY
    request-options:
      # {{ index .Help "timeout" }}
      timeout: 600
  - title: claude
    provider: anthropic
    model: claude-sonnet-4-5
    api-base: https://api.anthropic.com/v1
    api-key-env: ANTHROPIC_API_KEY
  - title: local
    provider: ollama
    model: llama3.2
    api-base: http://localhost:11434
    request-options:
      # {{ index .Help "ca-bundle-path" }}
      # ca-bundle-path: [/etc/ssl/corp-root.pem, /etc/ssl/corp-intermediate.pem]
      # {{ index .Help "proxy" }}
      # proxy: http://proxy.internal:3128
      # {{ index .Help "verify-ssl" }}
      # verify-ssl: false
      # {{ index .Help "headers" }}
      # headers:
      #   X-Team: platform
`

// EnsureFile writes the default settings file when path does not exist yet.
func EnsureFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return create(path)
	} else if err != nil {
		return fmt.Errorf("config: stat settings: %w", err)
	}
	return nil
}

// Reset backs up the settings file at path to path.bak and writes the
// defaults in its place.
func Reset(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("config: backup settings: %w", err)
		}
	}
	return create(path)
}

func create(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd
		return fmt.Errorf("config: create settings dir: %w", err)
	}
	tmpl := template.Must(template.New("settings").Parse(settingsTemplate))

	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("config: create settings: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := tmpl.Execute(f, struct{ Help map[string]string }{Help}); err != nil {
		return fmt.Errorf("config: render settings: %w", err)
	}
	return nil
}
