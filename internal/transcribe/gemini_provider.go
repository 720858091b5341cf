package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

const geminiInstruction = `Transcribe this phone call recording verbatim.
The expected language is %q. Include automated operator announcements exactly as spoken.
Reply with the transcript only. Reply with an empty message if nothing is said.`

// GeminiProvider implements Provider interface using Gemini audio understanding
type GeminiProvider struct {
	client *genai.Client
	config *Config
}

// NewGeminiProvider creates a new Gemini transcription provider
func NewGeminiProvider(config *Config) (Provider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.GeminiBaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = config.GeminiBaseURL
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
	}, nil
}

// Transcribe sends the audio inline and asks the model for a verbatim transcript
func (p *GeminiProvider) Transcribe(ctx context.Context, audioFile string) (string, error) {
	audio, err := readAudio(audioFile)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(geminiInstruction, p.language())),
		genai.NewPartFromBytes(audio, audioMIMEType(audioFile)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model(), contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("Gemini transcription API error: %w", err)
	}

	return strings.ToLower(strings.TrimSpace(resp.Text())), nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the Gemini API is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

func (p *GeminiProvider) model() string {
	if p.config.GeminiModel == "" {
		return DefaultProviderConfig().GeminiModel
	}
	return p.config.GeminiModel
}

func (p *GeminiProvider) language() string {
	if p.config.Language == "" {
		return "auto"
	}
	return p.config.Language
}

// audioMIMEType maps a recording file extension to its MIME type
func audioMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a", ".mp4":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}
