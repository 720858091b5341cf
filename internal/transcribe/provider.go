package transcribe

import (
	"context"
	"fmt"
)

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe returns the lowercase transcript of an audio file
	Transcribe(ctx context.Context, audioFile string) (string, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for transcription providers
type Config struct {
	Provider string // Provider name: "openai" or "gemini"
	Language string // ISO-639-1 hint, e.g. "uk"

	// OpenAI-specific settings
	OpenAIKey     string
	OpenAIModel   string // "whisper-1", "gpt-4o-transcribe", "gpt-4o-mini-transcribe"
	OpenAIBaseURL string // Optional API base, e.g. for a proxy

	// Gemini-specific settings
	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string // Optional API base, e.g. for a proxy

	// Caching
	EnableCache bool
	CacheDir    string
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:    "openai",
		Language:    "uk",
		OpenAIModel: "whisper-1",
		GeminiModel: "gemini-2.0-flash",
		CacheDir:    "./.transcript_cache",
	}
}

// NewProvider creates the appropriate transcription provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiProvider(config)

	default:
		return nil, fmt.Errorf("unknown transcription provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary    Provider
	fallback   Provider
	onFallback func(primary Provider, err error)
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails.
// onFallback, when not nil, is told about each primary failure.
func NewProviderWithFallback(primary, fallback Provider, onFallback func(primary Provider, err error)) Provider {
	return &ProviderWithFallback{
		primary:    primary,
		fallback:   fallback,
		onFallback: onFallback,
	}
}

// Transcribe tries primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) Transcribe(ctx context.Context, audioFile string) (string, error) {
	text, err := p.primary.Transcribe(ctx, audioFile)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	if p.onFallback != nil {
		p.onFallback(p.primary, err)
	}

	text, fallbackErr := p.fallback.Transcribe(ctx, audioFile)
	if fallbackErr != nil {
		return "", fmt.Errorf("both providers failed: primary=%v, fallback=%w", err, fallbackErr)
	}
	return text, nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
