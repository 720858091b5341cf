// Package processor runs the validation pipeline for one number or a whole
// batch: dial, wait for the recording, download, transcribe, classify and
// report. Batches are paced by a call-start limiter and may run several
// calls in flight while results are still written in input order.
package processor
