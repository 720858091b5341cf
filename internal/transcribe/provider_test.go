package transcribe

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct {
	name     string
	text     string
	err      error
	availErr error
	calls    int
}

func (s *stubProvider) Transcribe(ctx context.Context, audioFile string) (string, error) {
	s.calls++
	return s.text, s.err
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() error { return s.availErr }

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		wantName string
		wantErr  string
	}{
		{name: "nil config needs a key", config: nil, wantErr: "OpenAI API key is required"},
		{name: "openai", config: &Config{Provider: "openai", OpenAIKey: "k"}, wantName: "openai"},
		{name: "gemini without key", config: &Config{Provider: "gemini"}, wantErr: "Gemini API key is required"},
		{name: "gemini", config: &Config{Provider: "gemini", GeminiKey: "k"}, wantName: "gemini"},
		{name: "unknown", config: &Config{Provider: "vosk"}, wantErr: "unknown transcription provider: vosk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Errorf("NewProvider() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.wantName)
			}
			if err := p.IsAvailable(); err != nil {
				t.Errorf("IsAvailable() error = %v", err)
			}
		})
	}
}

func TestProviderWithFallback(t *testing.T) {
	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubProvider{name: "a", text: "hello"}
		fallback := &stubProvider{name: "b", text: "other"}
		p := NewProviderWithFallback(primary, fallback, nil)

		text, err := p.Transcribe(context.Background(), "x.mp3")
		if err != nil || text != "hello" {
			t.Errorf("Transcribe() = %q, %v", text, err)
		}
		if fallback.calls != 0 {
			t.Error("fallback should not be called")
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := &stubProvider{name: "a", err: errors.New("rate limited")}
		fallback := &stubProvider{name: "b", text: "other"}
		var notified error
		p := NewProviderWithFallback(primary, fallback, func(_ Provider, err error) { notified = err })

		text, err := p.Transcribe(context.Background(), "x.mp3")
		if err != nil || text != "other" {
			t.Errorf("Transcribe() = %q, %v", text, err)
		}
		if notified == nil {
			t.Error("onFallback not called")
		}
	})

	t.Run("both fail", func(t *testing.T) {
		p := NewProviderWithFallback(
			&stubProvider{name: "a", err: errors.New("e1")},
			&stubProvider{name: "b", err: errors.New("e2")},
			nil,
		)
		_, err := p.Transcribe(context.Background(), "x.mp3")
		if err == nil || !strings.Contains(err.Error(), "e1") || !strings.Contains(err.Error(), "e2") {
			t.Errorf("Expected both errors, got %v", err)
		}
	})

	t.Run("cancelled context skips fallback", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fallback := &stubProvider{name: "b", text: "other"}
		p := NewProviderWithFallback(&stubProvider{name: "a", err: context.Canceled}, fallback, nil)

		if _, err := p.Transcribe(ctx, "x.mp3"); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
		if fallback.calls != 0 {
			t.Error("fallback should not be called after cancellation")
		}
	})

	t.Run("name and availability", func(t *testing.T) {
		p := NewProviderWithFallback(
			&stubProvider{name: "a", availErr: errors.New("no key")},
			&stubProvider{name: "b"},
			nil,
		)
		if p.Name() != "a (fallback: b)" {
			t.Errorf("Name() = %s", p.Name())
		}
		if err := p.IsAvailable(); err != nil {
			t.Errorf("IsAvailable() error = %v", err)
		}

		both := NewProviderWithFallback(
			&stubProvider{name: "a", availErr: errors.New("x")},
			&stubProvider{name: "b", availErr: errors.New("y")},
			nil,
		)
		if err := both.IsAvailable(); err == nil {
			t.Error("Expected error when both unavailable")
		}
	})
}

func TestAudioMIMEType(t *testing.T) {
	tests := map[string]string{
		"recording.mp3": "audio/mpeg",
		"recording.WAV": "audio/wav",
		"a.ogg":         "audio/ogg",
		"a.flac":        "audio/flac",
		"a.m4a":         "audio/mp4",
		"noext":         "audio/mpeg",
	}
	for path, want := range tests {
		if got := audioMIMEType(path); got != want {
			t.Errorf("audioMIMEType(%q) = %s, want %s", path, got, want)
		}
	}
}
