package main

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/llmconn/internal/anthropic"
	"github.com/charmbracelet/llmconn/internal/catalog"
	"github.com/charmbracelet/llmconn/internal/cohere"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/ollama"
	"github.com/charmbracelet/llmconn/internal/openai"
)

const anthropicVersion = "2023-06-01"

// newLister returns the model lister of m's provider. Every request goes
// through hc, the resolved client of m.
func newLister(m config.Model, hc *http.Client) (catalog.Lister, error) {
	switch m.Provider {
	case config.ProviderOpenAI, "":
		return openai.New(openai.Config{
			AuthToken:  m.Key(),
			BaseURL:    m.APIBase,
			HTTPClient: hc,
		}), nil
	case config.ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			AuthToken:  m.Key(),
			BaseURL:    m.APIBase,
			HTTPClient: hc,
		}), nil
	case config.ProviderCohere:
		return cohere.New(cohere.Config{
			AuthToken:  m.Key(),
			BaseURL:    m.APIBase,
			HTTPClient: hc,
		}), nil
	case config.ProviderOllama:
		cfg := ollama.DefaultConfig()
		if m.APIBase != "" {
			cfg.BaseURL = m.APIBase
		}
		cfg.HTTPClient = hc
		return ollama.New(cfg) //nolint:wrapcheck
	default:
		return nil, fmt.Errorf("unknown provider %q", m.Provider)
	}
}

// authHeaders returns the headers authenticating raw requests to m, leaving
// out the ones the model configures itself.
func authHeaders(m config.Model) http.Header {
	h := http.Header{}
	key := m.Key()
	switch m.Provider {
	case config.ProviderAnthropic:
		h.Set("Anthropic-Version", anthropicVersion)
		if key != "" {
			h.Set("X-Api-Key", key)
		}
	case config.ProviderOllama:
	default:
		if key != "" {
			h.Set("Authorization", "Bearer "+key)
		}
	}
	for name := range m.RequestOptions.Headers {
		h.Del(name)
	}
	return h
}
