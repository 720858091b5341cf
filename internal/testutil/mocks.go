package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/snonux/phonevalidator/internal/telephony"
)

// MockDialer mocks a telephony provider. Behaviour is keyed by phone number.
type MockDialer struct {
	mu sync.Mutex

	DialErrors   map[string]error
	AwaitErrors  map[string]error
	CallStatus   map[string]string
	Audio        map[string][]byte // recording content per phone
	DownloadErrs map[string]error

	Latency time.Duration   // Time a call takes before its recording is ready
	OnDial  func(to string) // Called after each dial, outside the lock

	Calls    []string
	Started  []time.Time // Dial time per call
	Finished []time.Time // Recording ready time per call

	seq    int
	byCall map[string]string // call SID -> phone
}

// Dial mocks placing a call
func (m *MockDialer) Dial(ctx context.Context, to string) (*telephony.Call, error) {
	call, err := m.dial(to)
	if m.OnDial != nil {
		m.OnDial(to)
	}
	return call, err
}

func (m *MockDialer) dial(to string) (*telephony.Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, to)
	m.Started = append(m.Started, time.Now())
	if err, ok := m.DialErrors[to]; ok {
		return nil, err
	}

	m.seq++
	sid := fmt.Sprintf("CA%04d", m.seq)
	if m.byCall == nil {
		m.byCall = make(map[string]string)
	}
	m.byCall[sid] = to

	return &telephony.Call{SID: sid, To: to, Status: "queued"}, nil
}

// AwaitRecording mocks waiting for a recording
func (m *MockDialer) AwaitRecording(ctx context.Context, call *telephony.Call) (*telephony.Recording, error) {
	if m.Latency > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(m.Latency):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Finished = append(m.Finished, time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call.Status = "completed"
	if status, ok := m.CallStatus[call.To]; ok {
		call.Status = status
	}
	if err, ok := m.AwaitErrors[call.To]; ok {
		return nil, err
	}

	return &telephony.Recording{
		SID:     "RE" + call.SID[2:],
		CallSID: call.SID,
		URI:     "/Recordings/RE" + call.SID[2:] + ".json",
	}, nil
}

// DownloadRecording mocks downloading audio by writing the configured bytes
func (m *MockDialer) DownloadRecording(ctx context.Context, rec *telephony.Recording, dst string) error {
	m.mu.Lock()
	phone := m.byCall[rec.CallSID]
	err, failed := m.DownloadErrs[phone]
	audio, ok := m.Audio[phone]
	m.mu.Unlock()

	if failed {
		return err
	}
	if !ok {
		audio = []byte("mock audio for " + phone)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, audio, 0644)
}

// Name returns the mock provider name
func (m *MockDialer) Name() string {
	return "mock"
}

// Timings returns copies of the dial and recording-ready times
func (m *MockDialer) Timings() (started, finished []time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	started = append([]time.Time(nil), m.Started...)
	finished = append([]time.Time(nil), m.Finished...)
	return started, finished
}

// DialedNumbers returns a copy of the dialed numbers in call order
func (m *MockDialer) DialedNumbers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]string, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// MockTranscriber returns transcripts keyed by recording content
type MockTranscriber struct {
	mu sync.Mutex

	Transcripts map[string]string // audio content -> transcript
	Errors      map[string]error  // audio content -> error
	Files       []string
}

// Transcribe mocks speech-to-text
func (m *MockTranscriber) Transcribe(ctx context.Context, audioFile string) (string, error) {
	data, err := os.ReadFile(audioFile)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Files = append(m.Files, audioFile)
	if err, ok := m.Errors[string(data)]; ok {
		return "", err
	}
	return m.Transcripts[string(data)], nil
}

// Name returns the mock provider name
func (m *MockTranscriber) Name() string {
	return "mock"
}

// IsAvailable always succeeds
func (m *MockTranscriber) IsAvailable() error {
	return nil
}

// MockUploader records uploads
type MockUploader struct {
	mu   sync.Mutex
	Keys []string
	Err  error
}

// Upload mocks storing a recording
func (m *MockUploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	m.Keys = append(m.Keys, key)
	return "https://s3.example.com/calls/" + key, nil
}
