package config

import (
	"strings"
	"testing"
)

func TestCleanFileName(t *testing.T) {
	long := strings.Repeat("я", 200)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "draft.xhtml", "draft.xhtml"},
		{"separator", "a/b", "ab"},
		{"leading_dots", "..hidden", "hidden"},
		{"spaces", "  name  ", "name"},
		{"empty", "", badFileName},
		{"only_dots", "...", badFileName},
		{"truncated", long, strings.Repeat("я", 127)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFileName(tt.in); got != tt.want {
				t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorDisabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	if !colorDisabled() {
		t.Error("NO_COLOR ignored")
	}
}
