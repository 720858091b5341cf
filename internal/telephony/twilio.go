package telephony

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callAPI is the part of the Twilio REST API the dialer uses
type callAPI interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
	FetchCall(sid string, params *twilioApi.FetchCallParams) (*twilioApi.ApiV2010Call, error)
	ListRecording(params *twilioApi.ListRecordingParams) ([]twilioApi.ApiV2010Recording, error)
}

// TwilioDialer implements Dialer using the Twilio Programmable Voice API
type TwilioDialer struct {
	api        callAPI
	config     *Config
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewTwilioDialer creates a new Twilio dialer
func NewTwilioDialer(config *Config) *TwilioDialer {
	config = config.withDefaults()

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})

	return &TwilioDialer{
		api:        client.Api,
		config:     config,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		sleep:      sleepContext,
	}
}

// Name returns the provider name
func (d *TwilioDialer) Name() string {
	return "twilio"
}

// Dial places a call that plays the configured TwiML and records the line
func (d *TwilioDialer) Dial(ctx context.Context, to string) (*Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.config.FromNumber)
	params.SetUrl(d.config.TwiMLURL)
	params.SetMethod(d.config.TwiMLMethod)
	params.SetRecord(true)
	params.SetRecordingChannels("mono")
	params.SetRecordingStatusCallbackEvent([]string{"completed"})
	params.SetTimeout(d.config.RecordSeconds)
	params.SetTimeLimit(d.config.RecordSeconds)

	resp, err := d.api.CreateCall(params)
	if err != nil {
		return nil, fmt.Errorf("twilio create call: %w", describeError(err))
	}
	if resp == nil || resp.Sid == nil {
		return nil, fmt.Errorf("twilio create call: response without call SID")
	}

	return &Call{
		SID:    *resp.Sid,
		To:     to,
		Status: stringValue(resp.Status),
	}, nil
}

// AwaitRecording waits for the call to end and polls for its recording.
// The call status is refreshed on the way.
func (d *TwilioDialer) AwaitRecording(ctx context.Context, call *Call) (*Recording, error) {
	wait := time.Duration(d.config.RecordSeconds)*time.Second + d.config.SettleGrace
	if err := d.sleep(ctx, wait); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= d.config.PollAttempts; attempt++ {
		if fetched, err := d.api.FetchCall(call.SID, &twilioApi.FetchCallParams{}); err == nil && fetched != nil {
			if status := stringValue(fetched.Status); status != "" {
				call.Status = status
			}
		}

		params := &twilioApi.ListRecordingParams{}
		params.SetCallSid(call.SID)
		params.SetLimit(1)

		recordings, err := d.api.ListRecording(params)
		if err != nil {
			return nil, fmt.Errorf("twilio list recordings: %w", describeError(err))
		}
		if len(recordings) > 0 && recordings[0].Sid != nil {
			return toRecording(call.SID, recordings[0]), nil
		}

		if callFinishedWithoutAudio(call.Status) || attempt == d.config.PollAttempts {
			break
		}
		if err := d.sleep(ctx, d.config.PollInterval); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w %s (status %q)", ErrNoRecording, call.SID, call.Status)
}

// DownloadRecording fetches the MP3 rendition of a recording
func (d *TwilioDialer) DownloadRecording(ctx context.Context, rec *Recording, dst string) error {
	if rec == nil || rec.URI == "" {
		return fmt.Errorf("recording has no URI")
	}

	url := strings.TrimSuffix(d.config.APIBaseURL, "/") + strings.Replace(rec.URI, ".json", ".mp3", 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	req.SetBasicAuth(d.config.AccountSID, d.config.AuthToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download recording %s: %w", rec.SID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download recording %s: status %d", rec.SID, resp.StatusCode)
	}

	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create recordings directory: %w", err)
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create recording file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to write recording file: %w", err)
	}
	if written == 0 {
		os.Remove(dst)
		return fmt.Errorf("recording %s is empty", rec.SID)
	}

	return nil
}

func toRecording(callSID string, r twilioApi.ApiV2010Recording) *Recording {
	rec := &Recording{
		SID:     stringValue(r.Sid),
		CallSID: callSID,
		URI:     stringValue(r.Uri),
	}
	if n, err := strconv.Atoi(stringValue(r.Duration)); err == nil {
		rec.Duration = n
	}
	if rec.URI == "" {
		rec.URI = fmt.Sprintf("/2010-04-01/Accounts/%s/Recordings/%s.json", stringValue(r.AccountSid), rec.SID)
	}
	return rec
}

// callFinishedWithoutAudio reports statuses after which no recording will appear
func callFinishedWithoutAudio(status string) bool {
	switch status {
	case "busy", "failed", "no-answer", "canceled":
		return true
	}
	return false
}

// describeError flattens Twilio REST errors into a readable message
func describeError(err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		return fmt.Errorf("code %d (HTTP %d): %s: %w", restErr.Code, restErr.Status, restErr.Message, err)
	}
	return err
}

func stringValue[T any](p *T) string {
	if p == nil {
		return ""
	}
	return fmt.Sprint(*p)
}
