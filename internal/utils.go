package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Version is the phonevalidator release version
const Version = "0.3.0"

// GenerateRunID creates a unique ID for a validation attempt based on timestamp and phone number
// Format: epochMillis_md5(phone)[:8]
func GenerateRunID(phone string) string {
	epochMillis := time.Now().UnixNano() / 1000000

	hash := md5.Sum([]byte(phone))
	hashStr := hex.EncodeToString(hash[:])[:8]

	return fmt.Sprintf("%d_%s", epochMillis, hashStr)
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' || r == '+' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// isAlphaNumeric checks if a rune is an ASCII letter or digit
func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
