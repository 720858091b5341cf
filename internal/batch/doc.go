// Package batch reads phone numbers from CSV input files and normalizes
// them into dialable E.164-style numbers.
package batch
