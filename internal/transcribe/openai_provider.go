package transcribe

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider interface for OpenAI speech-to-text
type OpenAIProvider struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
}

// NewOpenAIProvider creates a new OpenAI transcription provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	provider := &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache,
	}

	// Create cache directory if caching is enabled
	if provider.enableCache && provider.cacheDir != "" {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// Transcribe sends the recording to the OpenAI transcription endpoint
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioFile string) (string, error) {
	audio, err := readAudio(audioFile)
	if err != nil {
		return "", err
	}

	// Check cache first
	var cacheFile string
	if p.enableCache && p.cacheDir != "" {
		cacheFile = p.getCacheFilePath(audio)
		if data, err := os.ReadFile(cacheFile); err == nil {
			return string(data), nil
		}
	}

	req := openai.AudioRequest{
		Model:    p.model(),
		FilePath: audioFile,
		Language: p.config.Language,
	}

	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI transcription API error: %w", err)
	}

	text := strings.ToLower(strings.TrimSpace(resp.Text))

	// Cache the result if caching is enabled
	if cacheFile != "" {
		_ = writeCacheFile(cacheFile, text) // Ignore cache errors
	}

	return text, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is configured
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

func (p *OpenAIProvider) model() string {
	if p.config.OpenAIModel == "" {
		return openai.Whisper1
	}
	return p.config.OpenAIModel
}

// getCacheFilePath generates a cache file path for the given audio
func (p *OpenAIProvider) getCacheFilePath(audio []byte) string {
	h := md5.New()
	h.Write(audio)
	h.Write([]byte(p.model()))
	h.Write([]byte(p.config.Language))
	hash := hex.EncodeToString(h.Sum(nil))

	// Use first 2 chars as subdirectory for better file system performance
	return filepath.Join(p.cacheDir, hash[:2], hash[2:]+".txt")
}

// readAudio loads a recording and rejects missing or empty files
func readAudio(audioFile string) ([]byte, error) {
	if audioFile == "" {
		return nil, fmt.Errorf("no audio file given")
	}
	data, err := os.ReadFile(audioFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio file %s is empty", audioFile)
	}
	return data, nil
}

func writeCacheFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// ClearCache removes all cached transcripts
func ClearCache(cacheDir string) error {
	if cacheDir == "" {
		return nil
	}
	return os.RemoveAll(cacheDir)
}

// CacheStats returns cache statistics
func CacheStats(cacheDir string) (fileCount int, totalSize int64, err error) {
	if cacheDir == "" {
		return 0, 0, nil
	}
	if _, statErr := os.Stat(cacheDir); os.IsNotExist(statErr) {
		return 0, 0, nil
	}

	err = filepath.Walk(cacheDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileCount++
			totalSize += info.Size()
		}
		return nil
	})

	return fileCount, totalSize, err
}
