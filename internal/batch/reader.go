package batch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformedPhone is returned when a value cannot be turned into a dialable number
var ErrMalformedPhone = errors.New("malformed phone number")

// PhoneColumn is the header name of the column holding numbers
const PhoneColumn = "phone"

// PhoneEntry represents one phone number read from the input file
type PhoneEntry struct {
	Row   int    // 1-based row in the input file
	Raw   string // Value as written in the file
	Phone string // Normalized number, empty when Err is set
	// Err is set when Raw could not be normalized
	Err error
}

// ReadPhoneFile reads phone numbers from a CSV file and returns PhoneEntry slice
// Supports formats:
// - Header with a "phone" column: only that column is used
// - No such header: the first column of every row is a number
// Empty cells are ignored and repeated numbers are kept only once.
func ReadPhoneFile(filename string) ([]PhoneEntry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open phone file: %w", err)
	}
	defer file.Close()

	entries, err := ReadPhones(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read phone file %s: %w", filename, err)
	}
	return entries, nil
}

// ReadPhones parses CSV content from r
func ReadPhones(r io.Reader) ([]PhoneEntry, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	column := 0
	start := 0
	if idx := phoneColumnIndex(records[0]); idx >= 0 {
		column = idx
		start = 1
	}

	var entries []PhoneEntry
	seen := make(map[string]bool)

	for i := start; i < len(records); i++ {
		record := records[i]
		if column >= len(record) {
			continue
		}

		raw := strings.TrimSpace(record[column])
		if raw == "" {
			continue
		}

		entry := PhoneEntry{Row: i + 1, Raw: raw}
		phone, err := NormalizePhone(raw)
		if err != nil {
			entry.Err = err
		} else {
			if seen[phone] {
				continue
			}
			seen[phone] = true
			entry.Phone = phone
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// skipBOM drops a UTF-8 byte order mark so a quoted first field still parses
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if first, _, err := br.ReadRune(); err == nil && first != '\ufeff' {
		_ = br.UnreadRune()
	}
	return br
}

// phoneColumnIndex returns the index of the phone column in a header row or -1
func phoneColumnIndex(header []string) int {
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		if strings.EqualFold(strings.TrimSpace(name), PhoneColumn) {
			return i
		}
	}
	return -1
}

// NormalizePhone strips formatting characters and checks the digit count.
// "00" international prefixes are rewritten to "+".
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))

	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '\t':
			// formatting
		default:
			return "", fmt.Errorf("%w: unexpected character %q in %q", ErrMalformedPhone, r, raw)
		}
	}

	phone := b.String()
	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
		digits -= 2
	}

	if digits < 7 || digits > 15 {
		return "", fmt.Errorf("%w: %q has %d digits", ErrMalformedPhone, raw, digits)
	}

	return phone, nil
}
