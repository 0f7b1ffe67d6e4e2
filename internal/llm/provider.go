package llm

import (
	"errors"
	"fmt"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Provider is a validated OpenAI-compatible generation backend.
// The zero value is unset; use OrDefault before building a client.
type Provider struct {
	name string
}

var _ fmt.Stringer = Provider{}

// Pre-parsed providers.
var (
	OpenAI   = Provider{name: ProviderOpenAI}
	DeepSeek = Provider{name: ProviderDeepSeek}
)

// providerDefaults holds the endpoint and chat model used when the
// configuration leaves them empty.
var providerDefaults = map[string]struct {
	baseURL string
	model   string
}{
	ProviderOpenAI:   {baseURL: "https://api.openai.com/v1", model: "gpt-4o-mini"},
	ProviderDeepSeek: {baseURL: "https://api.deepseek.com/v1", model: "deepseek-chat"},
}

// ParseProvider validates a provider name. Empty input is an error.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if _, ok := providerDefaults[s]; !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'openai' or 'deepseek'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// MustParseProvider parses a provider name, panicking if invalid.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Provider) String() string { return p.name }

// IsZero reports whether no provider is set.
func (p Provider) IsZero() bool { return p.name == "" }

// OrDefault returns p, or OpenAI when p is unset.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAI
	}
	return p
}

// BaseURL returns the provider's default API base URL.
func (p Provider) BaseURL() string { return providerDefaults[p.OrDefault().name].baseURL }

// DefaultModel returns the provider's default chat model.
func (p Provider) DefaultModel() string { return providerDefaults[p.OrDefault().name].model }
