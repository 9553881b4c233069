package utils

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("NUDGE_TEST_DIR", "/srv/nudge")

	tests := []struct {
		in   string
		want string
	}{
		{"~/sounds", filepath.Join(home, "sounds")},
		{"$NUDGE_TEST_DIR/sounds", "/srv/nudge/sounds"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
