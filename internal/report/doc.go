// Package report writes validation results to CSV and keeps batch statistics.
package report
