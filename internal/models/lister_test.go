package models

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestNewLister(t *testing.T) {
	lister := NewLister("test-api-key")

	if lister == nil {
		t.Fatal("NewLister returned nil")
	}

	if lister.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", lister.apiKey)
	}

	if lister.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestListTranscriptionModels_NoAPIKey(t *testing.T) {
	lister := NewLister("")

	err := lister.ListTranscriptionModels(context.Background(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	expectedError := "OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .phonevalidator.yaml"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got: %v", expectedError, err)
	}
}

func TestListTranscriptionModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"id":"whisper-1","object":"model"},
			{"id":"gpt-4o-transcribe","object":"model"},
			{"id":"gpt-4o","object":"model"},
			{"id":"tts-1","object":"model"}
		]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	lister := NewListerWithBaseURL("test-key", srv.URL+"/v1")
	if err := lister.ListTranscriptionModels(context.Background(), &out); err != nil {
		t.Fatalf("ListTranscriptionModels() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "  gpt-4o-transcribe\n  whisper-1\n") {
		t.Errorf("transcription models not listed in sorted order:\n%s", got)
	}
	if !strings.Contains(got, "... and 2 other models") {
		t.Errorf("other model count missing:\n%s", got)
	}
}

func TestIsTranscriptionModel(t *testing.T) {
	tests := map[string]bool{
		"whisper-1":              true,
		"gpt-4o-mini-transcribe": true,
		"gpt-4o":                 false,
		"tts-1-hd":               false,
	}
	for id, want := range tests {
		if got := IsTranscriptionModel(id); got != want {
			t.Errorf("IsTranscriptionModel(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestListTranscriptionModels_Integration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	var out bytes.Buffer
	if err := NewLister(apiKey).ListTranscriptionModels(context.Background(), &out); err != nil {
		t.Errorf("ListTranscriptionModels failed: %v", err)
	}
}
