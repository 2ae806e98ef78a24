package oracle

import (
	"fmt"
	"strings"
)

// NewProvider creates an oracle provider based on configuration. An empty
// provider name returns nil: the pipeline then runs without an oracle,
// which is only useful for exercising the plumbing.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai)", config.Provider)
	}
}
