package window

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/dgnsrekt/nudge/internal/proc"
)

func TestArgs(t *testing.T) {
	if got := Args(true); !slices.Equal(got, []string{"-r", ":ACTIVE:", "-b", "add,above"}) {
		t.Errorf("Args(true) = %v", got)
	}
	if got := Args(false); got[3] != "remove,above" {
		t.Errorf("Args(false) = %v", got)
	}
}

func TestSetAlwaysOnTop(t *testing.T) {
	var ran []string
	ok := func(_ context.Context, _ []byte, name string, args ...string) ([]byte, error) {
		ran = append([]string{name}, args...)
		return nil, nil
	}
	if err := NewFor("linux", ok).SetAlwaysOnTop(context.Background(), true); err != nil {
		t.Fatalf("SetAlwaysOnTop() error = %v", err)
	}
	if ran[0] != "wmctrl" {
		t.Errorf("ran %v", ran)
	}

	missing := func(context.Context, []byte, string, ...string) ([]byte, error) {
		return nil, proc.ErrNotFound
	}
	if err := NewFor("linux", missing).SetAlwaysOnTop(context.Background(), true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetAlwaysOnTop() without wmctrl error = %v, want ErrUnsupported", err)
	}
	if err := NewFor("darwin", ok).SetAlwaysOnTop(context.Background(), true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetAlwaysOnTop() on darwin error = %v, want ErrUnsupported", err)
	}
}
