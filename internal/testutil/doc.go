// Package testutil provides file helpers and in-memory telephony and
// transcription mocks for tests.
package testutil
