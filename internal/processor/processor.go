package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"codeberg.org/snonux/phonevalidator/internal"
	"codeberg.org/snonux/phonevalidator/internal/batch"
	"codeberg.org/snonux/phonevalidator/internal/classify"
	"codeberg.org/snonux/phonevalidator/internal/report"
	"codeberg.org/snonux/phonevalidator/internal/telephony"
	"codeberg.org/snonux/phonevalidator/internal/transcribe"
)

// ErrNoPhones is returned when a batch contains no phone numbers
var ErrNoPhones = errors.New("no phone numbers to process")

// ReasonNoRecording marks calls that produced no audio
const ReasonNoRecording = "no recording"

// History remembers verdicts across runs
type History interface {
	Record(ctx context.Context, r report.Result) error
	Validated(ctx context.Context, phone string) (bool, error)
}

// Uploader stores a recording remotely and returns its location
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Options control pacing and file handling
type Options struct {
	Delay          time.Duration // Pause after each call and minimum spacing between call starts
	Concurrency    int           // Calls in flight
	RecordingsDir  string
	KeepRecordings bool
	SkipValidated  bool
	DryRun         bool
	SnippetLength  int // Transcript length written to the results file
}

// DefaultOptions returns the options used by the CLI when nothing is configured
func DefaultOptions() Options {
	return Options{
		Delay:         2 * time.Second,
		Concurrency:   1,
		RecordingsDir: "recordings",
		SnippetLength: 100,
	}
}

// Deps are the collaborators of a Processor. History and Uploader are optional.
type Deps struct {
	Dialer      telephony.Dialer
	Transcriber transcribe.Provider
	Classifier  *classify.Classifier
	History     History
	Uploader    Uploader
	Logger      *zap.Logger
	Out         io.Writer // Progress output, defaults to stdout
}

// Processor validates phone numbers
type Processor struct {
	dialer      telephony.Dialer
	transcriber transcribe.Provider
	classifier  *classify.Classifier
	history     History
	uploader    Uploader
	logger      *zap.Logger
	out         io.Writer
	options     Options
	now         func() time.Time
}

// NewProcessor creates a new processor
func NewProcessor(deps Deps, options Options) *Processor {
	defaults := DefaultOptions()
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	if options.RecordingsDir == "" {
		options.RecordingsDir = defaults.RecordingsDir
	}
	if options.SnippetLength <= 0 {
		options.SnippetLength = defaults.SnippetLength
	}

	p := &Processor{
		dialer:      deps.Dialer,
		transcriber: deps.Transcriber,
		classifier:  deps.Classifier,
		history:     deps.History,
		uploader:    deps.Uploader,
		logger:      deps.Logger,
		out:         deps.Out,
		options:     options,
		now:         time.Now,
	}
	if p.classifier == nil {
		p.classifier = classify.NewClassifier(nil, classify.DefaultMinLength)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	return p
}

// ProcessBatch validates every number of the input CSV and writes the results CSV
func (p *Processor) ProcessBatch(ctx context.Context, input, output string) (report.Summary, error) {
	var summary report.Summary

	entries, err := batch.ReadPhoneFile(input)
	if err != nil {
		return summary, err
	}
	if len(entries) == 0 {
		return summary, ErrNoPhones
	}

	p.logger.Info("batch loaded",
		zap.String("input", input),
		zap.Int("numbers", len(entries)),
		zap.Int("concurrency", p.options.Concurrency),
		zap.Duration("delay", p.options.Delay))

	if p.options.DryRun {
		return p.dryRun(ctx, entries), nil
	}
	if err := p.ready(); err != nil {
		return summary, err
	}

	writer, err := report.NewWriter(output, p.options.SnippetLength)
	if err != nil {
		return summary, err
	}
	defer writer.Close()

	sink := newOrderedSink(writer, len(entries))
	limiter := p.newLimiter()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.options.Concurrency)

	for i, entry := range entries {
		if gctx.Err() != nil {
			break
		}

		if p.alreadyValidated(gctx, entry) {
			fmt.Fprintf(p.out, "Skipping %d/%d: %s (already validated)\n", i+1, len(entries), entry.Phone)
			sink.skip(i)
			continue
		}

		if entry.Err != nil {
			fmt.Fprintf(p.out, "Skipping %d/%d: %q is not a phone number\n", i+1, len(entries), entry.Raw)
			sink.deliver(i, p.ValidatePhone(gctx, entry))
			continue
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			fmt.Fprintf(p.out, "Calling %d/%d: %s\n", i+1, len(entries), entry.Phone)
			result := p.ValidatePhone(gctx, entry)
			fmt.Fprintf(p.out, "  %s %s\n", result.Status, describe(result))
			sink.deliver(i, result)

			// The slot stays taken during the pause, so the next dial waits for it
			if i < len(entries)-1 {
				return p.pause(gctx)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	summary, writeErr := sink.finish()

	if writeErr != nil {
		return summary, fmt.Errorf("failed to write results: %w", writeErr)
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if waitErr != nil {
		return summary, waitErr
	}
	return summary, nil
}

// ProcessSingle validates one number and writes a one-row results CSV
func (p *Processor) ProcessSingle(ctx context.Context, phone, output string) (report.Result, error) {
	normalized, err := batch.NormalizePhone(phone)
	entry := batch.PhoneEntry{Row: 1, Raw: phone, Phone: normalized, Err: err}

	if p.options.DryRun {
		p.dryRun(ctx, []batch.PhoneEntry{entry})
		return report.Result{Phone: entry.Phone}, nil
	}
	if err := p.ready(); err != nil {
		return report.Result{}, err
	}

	writer, err := report.NewWriter(output, p.options.SnippetLength)
	if err != nil {
		return report.Result{}, err
	}
	defer writer.Close()

	fmt.Fprintf(p.out, "Calling: %s\n", phone)
	result := p.ValidatePhone(ctx, entry)
	fmt.Fprintf(p.out, "  %s %s\n", result.Status, describe(result))

	if err := writer.Write(result); err != nil {
		return result, fmt.Errorf("failed to write results: %w", err)
	}
	return result, nil
}

// ValidatePhone runs the full pipeline for one entry. Failures are reported in
// the result, never as an error.
func (p *Processor) ValidatePhone(ctx context.Context, entry batch.PhoneEntry) report.Result {
	result := report.Result{Phone: entry.Phone}

	if entry.Err != nil {
		result.Phone = entry.Raw
		return p.fail(ctx, result, entry.Err)
	}

	logger := p.logger.With(zap.String("phone", entry.Phone))

	call, err := p.dialer.Dial(ctx, entry.Phone)
	if err != nil {
		return p.fail(ctx, result, fmt.Errorf("call failed: %w", err))
	}
	result.CallSID = call.SID
	logger.Info("call placed", zap.String("call_sid", call.SID))

	rec, err := p.dialer.AwaitRecording(ctx, call)
	result.CallStatus = call.Status
	if errors.Is(err, telephony.ErrNoRecording) {
		logger.Info("no recording", zap.String("call_status", call.Status))
		result.Status = report.StatusInvalid
		result.Reason = ReasonNoRecording
		return p.finish(ctx, result)
	}
	if err != nil {
		return p.fail(ctx, result, fmt.Errorf("recording unavailable: %w", err))
	}
	result.RecordingSID = rec.SID

	audioFile := filepath.Join(p.options.RecordingsDir,
		fmt.Sprintf("recording_%s.mp3", internal.SanitizeFilename(rec.SID)))
	if err := p.dialer.DownloadRecording(ctx, rec, audioFile); err != nil {
		return p.fail(ctx, result, fmt.Errorf("download failed: %w", err))
	}
	if !p.options.KeepRecordings {
		defer func() {
			if err := os.Remove(audioFile); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to remove recording", zap.String("file", audioFile), zap.Error(err))
			}
		}()
	}

	p.upload(ctx, logger, entry.Phone, rec.SID, audioFile)

	text, err := p.transcriber.Transcribe(ctx, audioFile)
	if err != nil {
		return p.fail(ctx, result, fmt.Errorf("transcription failed: %w", err))
	}
	result.Transcript = text
	logger.Debug("transcribed", zap.String("provider", p.transcriber.Name()), zap.String("text", text))

	verdict := p.classifier.Classify(text)
	result.Status = report.StatusInvalid
	if verdict.Valid {
		result.Status = report.StatusValid
	}
	result.Reason = verdict.Reason
	result.MatchedPhrase = verdict.MatchedPhrase

	return p.finish(ctx, result)
}

func (p *Processor) upload(ctx context.Context, logger *zap.Logger, phone, recordingSID, audioFile string) {
	if p.uploader == nil {
		return
	}

	key := fmt.Sprintf("%s/%s.mp3", internal.GenerateRunID(phone), internal.SanitizeFilename(recordingSID))
	url, err := p.uploader.Upload(ctx, audioFile, key)
	if err != nil {
		logger.Warn("recording upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	logger.Info("recording uploaded", zap.String("url", url))
}

func (p *Processor) fail(ctx context.Context, result report.Result, err error) report.Result {
	result.Status = report.StatusError
	result.Error = err.Error()
	return p.finish(ctx, result)
}

func (p *Processor) finish(ctx context.Context, result report.Result) report.Result {
	result.Timestamp = p.now()

	p.logger.Info("number validated",
		zap.String("phone", result.Phone),
		zap.String("status", string(result.Status)),
		zap.String("reason", result.Reason),
		zap.String("matched_phrase", result.MatchedPhrase),
		zap.String("error", result.Error))

	if p.history != nil && result.Phone != "" {
		// The run may be cancelled while the verdict is still worth keeping.
		if err := p.history.Record(context.WithoutCancel(ctx), result); err != nil {
			p.logger.Warn("failed to record history", zap.String("phone", result.Phone), zap.Error(err))
		}
	}
	return result
}

func (p *Processor) alreadyValidated(ctx context.Context, entry batch.PhoneEntry) bool {
	if !p.options.SkipValidated || p.history == nil || entry.Err != nil {
		return false
	}

	validated, err := p.history.Validated(ctx, entry.Phone)
	if err != nil {
		p.logger.Warn("history lookup failed", zap.String("phone", entry.Phone), zap.Error(err))
		return false
	}
	return validated
}

func (p *Processor) ready() error {
	if p.dialer == nil {
		return errors.New("no telephony provider configured")
	}
	if p.transcriber == nil {
		return errors.New("no transcription provider configured")
	}
	return nil
}

// pause waits Delay after a call before its slot is handed to the next number
func (p *Processor) pause(ctx context.Context) error {
	if p.options.Delay <= 0 {
		return nil
	}

	p.logger.Debug("pause between calls", zap.Duration("delay", p.options.Delay))
	timer := time.NewTimer(p.options.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Processor) newLimiter() *rate.Limiter {
	if p.options.Delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(p.options.Delay), 1)
}

// dryRun prints what a real run would do without dialing
func (p *Processor) dryRun(ctx context.Context, entries []batch.PhoneEntry) report.Summary {
	var summary report.Summary

	fmt.Fprintf(p.out, "Dry run: %d numbers\n", len(entries))
	for i, entry := range entries {
		switch {
		case entry.Err != nil:
			fmt.Fprintf(p.out, "  %d. %q: %v\n", i+1, entry.Raw, entry.Err)
			summary.Add(report.StatusError)
		case p.alreadyValidated(ctx, entry):
			fmt.Fprintf(p.out, "  %d. %s: already validated, would skip\n", i+1, entry.Phone)
			summary.Skip()
		default:
			fmt.Fprintf(p.out, "  %d. %s: would call\n", i+1, entry.Phone)
			summary.Total++
		}
	}
	return summary
}

func describe(r report.Result) string {
	switch {
	case r.Error != "":
		return r.Error
	case r.MatchedPhrase != "":
		return fmt.Sprintf("(%s: %q)", r.Reason, r.MatchedPhrase)
	default:
		return fmt.Sprintf("(%s)", r.Reason)
	}
}

// orderedSink writes results in input order as soon as every earlier row is known
type orderedSink struct {
	mu      sync.Mutex
	writer  *report.Writer
	results []*report.Result
	done    []bool
	next    int
	summary report.Summary
	err     error
}

func newOrderedSink(writer *report.Writer, n int) *orderedSink {
	return &orderedSink{
		writer:  writer,
		results: make([]*report.Result, n),
		done:    make([]bool, n),
	}
}

func (s *orderedSink) deliver(i int, result report.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary.Add(result.Status)
	s.results[i] = &result
	s.done[i] = true
	s.flush()
}

func (s *orderedSink) skip(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summary.Skip()
	s.done[i] = true
	s.flush()
}

// flush writes the complete prefix. Caller holds mu.
func (s *orderedSink) flush() {
	for s.next < len(s.done) && s.done[s.next] {
		s.write(s.next)
		s.next++
	}
}

func (s *orderedSink) write(i int) {
	if s.results[i] == nil {
		return
	}
	if err := s.writer.Write(*s.results[i]); err != nil && s.err == nil {
		s.err = err
	}
	s.results[i] = nil
}

// finish writes rows stranded behind entries that never ran
func (s *orderedSink) finish() (report.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := s.next; i < len(s.done); i++ {
		if s.done[i] {
			s.write(i)
		}
	}
	s.next = len(s.done)
	return s.summary, s.err
}
