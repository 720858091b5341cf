package cli

import "time"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	BatchFile  string
	OutputFile string
	ListModels bool
	DryRun     bool
	Verbose    bool
	LogFile    string
	ClearCache bool
	Archive    bool

	// Call flags
	Delay         time.Duration
	RecordSeconds int
	Concurrency   int

	// Transcription flags
	Transcriber string
	Fallback    string
	Language    string
	Model       string

	// Recording and history flags
	RecordingsDir  string
	KeepRecordings bool
	HistoryPath    string
	SkipValidated  bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogFile:       "phone_validation.log",
		Delay:         2 * time.Second,
		RecordSeconds: 10,
		Concurrency:   1,
		Transcriber:   "openai",
		Language:      "uk",
		RecordingsDir: "recordings",
	}
}
