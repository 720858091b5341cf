// Package models lists the OpenAI models available to the configured API key
// that can transcribe call recordings.
package models
