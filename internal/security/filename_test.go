package security

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"stroke_001", "stroke_001"},
		{"file:trace.txt", "file_trace.txt"},
		{"serial:/dev/ttyUSB0", "serial_dev_ttyUSB0"},
		{"../../etc/passwd", "etc_passwd"},
		{"a   b", "a_b"},
		{"...", "unknown"},
		{"///", "unknown"},
		{"héllo", "h_llo"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("x", 500))
	if len(got) != maxFilenameLen {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen)
	}
}
