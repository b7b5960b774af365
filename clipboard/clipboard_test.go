package clipboard_test

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"testing"

	"github.com/Isabellarossi/edgedb/clipboard"
)

func lookPathFor(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		if slices.Contains(available, name) {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		goos      string
		available []string
		want      []string
		wantErr   bool
	}{
		{
			name:      "darwin",
			goos:      "darwin",
			available: []string{"pbcopy"},
			want:      []string{"pbcopy"},
		},
		{
			name:      "linux prefers wayland",
			goos:      "linux",
			available: []string{"xclip", "wl-copy"},
			want:      []string{"wl-copy"},
		},
		{
			name:      "linux xsel fallback",
			goos:      "linux",
			available: []string{"xsel"},
			want:      []string{"xsel", "--clipboard", "--input"},
		},
		{
			name:    "linux nothing installed",
			goos:    "linux",
			wantErr: true,
		},
		{
			name:      "unsupported os",
			goos:      "plan9",
			available: []string{"pbcopy"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := clipboard.Command(tt.goos, lookPathFor(tt.available...))
			if tt.wantErr {
				if !errors.Is(err, clipboard.ErrUnavailable) {
					t.Fatalf("Command() error = %v, want ErrUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Command() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Command() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("no display")
	}

	if err := clipboard.Copy(t.Context(), "hello from test"); err != nil {
		if errors.Is(err, clipboard.ErrUnavailable) {
			t.Skip(err.Error())
		}
		t.Fatalf("Copy returned error: %v", err)
	}
}
