package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveRecordings moves the recordings directory to an archive with timestamp
// and returns the new location
func ArchiveRecordings(recordingsDir string) (string, error) {
	if _, err := os.Stat(recordingsDir); os.IsNotExist(err) {
		return "", fmt.Errorf("recordings directory does not exist: %s", recordingsDir)
	}

	parentDir := filepath.Dir(recordingsDir)
	archiveDir := filepath.Join(parentDir, "archive")

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("recordings-%s", timestamp))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("recordings-%s", timestamp))
	}

	if err := os.Rename(recordingsDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive recordings directory: %w", err)
	}

	return archivePath, nil
}
