// Package store keeps a SQLite history of validated numbers so repeated
// batches can skip numbers that already have a verdict.
package store
