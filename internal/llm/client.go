package llm

import (
	"context"
	"fmt"
	"strings"
)

// Request describes a single chat completion call: a system instruction and
// the user content it applies to.
type Request struct {
	System string
	User   string
}

// Client generates chat completions. Implementations must be safe for
// concurrent use; the router shares one client across requests.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config holds completion provider configuration
type Config struct {
	Provider string `yaml:"provider"` // ollama, openai
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// NewClient creates a completion client for the configured provider.
func NewClient(config Config) (Client, error) {
	switch strings.ToLower(config.Provider) {
	case "", "ollama":
		return NewOllamaClient(config)
	case "openai":
		return NewOpenAIClient(config)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", config.Provider)
	}
}
