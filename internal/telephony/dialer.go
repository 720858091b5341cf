package telephony

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoRecording is returned when a call finished without producing audio
var ErrNoRecording = errors.New("no recording for call")

// Call is an outbound call placed by a Dialer
type Call struct {
	SID    string
	To     string
	Status string // Provider call status, e.g. "completed", "busy", "no-answer"
}

// Recording is the audio captured for a call
type Recording struct {
	SID      string
	CallSID  string
	URI      string // Provider resource URI
	Duration int    // Seconds, 0 when unknown
}

// Dialer defines the interface for telephony providers
type Dialer interface {
	// Dial places a recorded call to the given number
	Dial(ctx context.Context, to string) (*Call, error)

	// AwaitRecording waits until the call's recording is available
	AwaitRecording(ctx context.Context, call *Call) (*Recording, error)

	// DownloadRecording saves the recording audio to dst
	DownloadRecording(ctx context.Context, rec *Recording, dst string) error

	// Name returns the provider name
	Name() string
}

// Config holds configuration for telephony providers
type Config struct {
	Provider string // Provider name: "twilio"

	AccountSID string
	AuthToken  string
	FromNumber string

	// TwiMLURL is fetched by the provider when the call connects
	TwiMLURL    string
	TwiMLMethod string

	RecordSeconds int           // Ring timeout and call time limit
	SettleGrace   time.Duration // Extra wait after the call before asking for recordings

	PollAttempts int
	PollInterval time.Duration

	// APIBaseURL is the host recording media is downloaded from
	APIBaseURL string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:      "twilio",
		TwiMLURL:      "http://twimlets.com/holdmusic?Bucket=com.twilio.music.ambient",
		TwiMLMethod:   "GET",
		RecordSeconds: 10,
		SettleGrace:   2 * time.Second,
		PollAttempts:  5,
		PollInterval:  2 * time.Second,
		APIBaseURL:    "https://api.twilio.com",
	}
}

// withDefaults fills zero values from DefaultConfig
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	merged := *c
	if merged.Provider == "" {
		merged.Provider = d.Provider
	}
	if merged.TwiMLURL == "" {
		merged.TwiMLURL = d.TwiMLURL
	}
	if merged.TwiMLMethod == "" {
		merged.TwiMLMethod = d.TwiMLMethod
	}
	if merged.RecordSeconds <= 0 {
		merged.RecordSeconds = d.RecordSeconds
	}
	if merged.SettleGrace < 0 {
		merged.SettleGrace = 0
	}
	if merged.PollAttempts <= 0 {
		merged.PollAttempts = d.PollAttempts
	}
	if merged.PollInterval <= 0 {
		merged.PollInterval = d.PollInterval
	}
	if merged.APIBaseURL == "" {
		merged.APIBaseURL = d.APIBaseURL
	}
	return &merged
}

// Validate reports all missing credentials at once
func (c *Config) Validate() error {
	if missing := c.MissingCredentials(); len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MissingCredentials returns the environment names of unset credentials
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.FromNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	return missing
}

// NewDialer creates the appropriate dialer based on configuration
func NewDialer(config *Config) (Dialer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.withDefaults()

	switch config.Provider {
	case "twilio":
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return NewTwilioDialer(config), nil

	default:
		return nil, fmt.Errorf("unknown telephony provider: %s", config.Provider)
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
