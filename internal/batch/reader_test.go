package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestReadPhoneFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		want        []PhoneEntry
	}{
		{
			name:        "empty file",
			fileContent: "",
			want:        nil,
		},
		{
			name:        "header only",
			fileContent: "phone\n",
			want:        nil,
		},
		{
			name: "phone column with other columns",
			fileContent: `name,phone,city
Olena,+380501234567,Kyiv
Taras,+380671112233,Lviv`,
			want: []PhoneEntry{
				{Row: 2, Raw: "+380501234567", Phone: "+380501234567"},
				{Row: 3, Raw: "+380671112233", Phone: "+380671112233"},
			},
		},
		{
			name:        "header is case insensitive and may carry a BOM",
			fileContent: "\ufeffPhone\r\n+380501234567\r\n",
			want: []PhoneEntry{
				{Row: 2, Raw: "+380501234567", Phone: "+380501234567"},
			},
		},
		{
			name:        "BOM before a quoted header",
			fileContent: "\ufeff\"phone\"\r\n\"+380501234567\"\r\n",
			want: []PhoneEntry{
				{Row: 2, Raw: "+380501234567", Phone: "+380501234567"},
			},
		},
		{
			name:        "BOM before a quoted number without header",
			fileContent: "\ufeff\"+380501234567\",x\n",
			want: []PhoneEntry{
				{Row: 1, Raw: "+380501234567", Phone: "+380501234567"},
			},
		},
		{
			name: "no header uses first column",
			fileContent: `+380501234567,first
0501234568,second`,
			want: []PhoneEntry{
				{Row: 1, Raw: "+380501234567", Phone: "+380501234567"},
				{Row: 2, Raw: "0501234568", Phone: "0501234568"},
			},
		},
		{
			name: "empty cells and short rows are skipped",
			fileContent: `id,phone
1,
2
3,+380501234567`,
			want: []PhoneEntry{
				{Row: 4, Raw: "+380501234567", Phone: "+380501234567"},
			},
		},
		{
			name: "formatting is normalized and duplicates dropped",
			fileContent: `phone
"+38 (050) 123-45-67"
+380501234567
00380671112233`,
			want: []PhoneEntry{
				{Row: 2, Raw: "+38 (050) 123-45-67", Phone: "+380501234567"},
				{Row: 4, Raw: "00380671112233", Phone: "+380671112233"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpFile := filepath.Join(t.TempDir(), "phones.csv")
			if err := os.WriteFile(tmpFile, []byte(tt.fileContent), 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			got, err := ReadPhoneFile(tmpFile)
			if err != nil {
				t.Fatalf("ReadPhoneFile() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("ReadPhoneFile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadPhoneFile_MalformedEntry(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "phones.csv")
	content := "phone\nnot-a-number\n+380501234567\n"
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := ReadPhoneFile(tmpFile)
	if err != nil {
		t.Fatalf("ReadPhoneFile() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if !errors.Is(got[0].Err, ErrMalformedPhone) {
		t.Errorf("Expected ErrMalformedPhone for %q, got %v", got[0].Raw, got[0].Err)
	}
	if got[0].Phone != "" {
		t.Errorf("Malformed entry should have no phone, got %q", got[0].Phone)
	}
	if got[1].Err != nil {
		t.Errorf("Unexpected error for valid entry: %v", got[1].Err)
	}
}

func TestReadPhoneFile_FileNotFound(t *testing.T) {
	_, err := ReadPhoneFile("/nonexistent/phones.csv")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "+380501234567", want: "+380501234567"},
		{input: "+1 (415) 555-0100", want: "+14155550100"},
		{input: "0044 20 7946 0958", want: "+442079460958"},
		{input: "050.123.45.67", want: "0501234567"},
		{input: "  0501234567  ", want: "0501234567"},
		{input: "12345", wantErr: true},
		{input: "+1234567890123456", wantErr: true},
		{input: "050-CALL-NOW", wantErr: true},
		{input: "380+501234567", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizePhone(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPhone) {
					t.Errorf("Expected ErrMalformedPhone, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
