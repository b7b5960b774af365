package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable is returned when no clipboard command exists for the platform.
var ErrUnavailable = errors.New("clipboard: no copy command available")

// candidates lists the copy commands tried for each GOOS, in order.
var candidates = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"linux":   {{"wl-copy"}, {"xclip", "-selection", "clipboard"}, {"xsel", "--clipboard", "--input"}},
	"windows": {{"clip.exe"}},
}

// Command returns the first copy command for goos whose binary passes
// lookPath.
func Command(goos string, lookPath func(string) (string, error)) ([]string, error) {
	cmds, ok := candidates[goos]
	if !ok {
		return nil, fmt.Errorf("%w on %s", ErrUnavailable, goos)
	}
	var names []string
	for _, c := range cmds {
		if _, err := lookPath(c[0]); err == nil {
			return c, nil
		}
		names = append(names, c[0])
	}
	return nil, fmt.Errorf("%w: install one of %s", ErrUnavailable, strings.Join(names, ", "))
}

// Copy writes text to the system clipboard.
func Copy(ctx context.Context, text string) error {
	args, err := Command(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // fixed command table
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard copy: %w", err)
	}
	return nil
}
