package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// NewListerWithBaseURL creates a model lister talking to a different API base
func NewListerWithBaseURL(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// ListTranscriptionModels prints the speech-to-text models available for the API key
func (l *Lister) ListTranscriptionModels(ctx context.Context, w io.Writer) error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .phonevalidator.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	sttModels := []string{}
	others := 0
	for _, model := range models.Models {
		if IsTranscriptionModel(model.ID) {
			sttModels = append(sttModels, model.ID)
		} else {
			others++
		}
	}
	sort.Strings(sttModels)

	fmt.Fprintln(w, "Available OpenAI Models:")
	fmt.Fprintln(w, "\nSpeech-to-Text Models (use with --model):")
	if len(sttModels) == 0 {
		fmt.Fprintln(w, "  No transcription models found")
	} else {
		for _, model := range sttModels {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}
	if others > 0 {
		fmt.Fprintf(w, "\n  ... and %d other models\n", others)
	}

	return nil
}

// IsTranscriptionModel reports whether a model ID is a speech-to-text model
func IsTranscriptionModel(id string) bool {
	return strings.Contains(id, "whisper") || strings.Contains(id, "transcribe")
}
