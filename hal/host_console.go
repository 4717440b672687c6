//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"

	tty "github.com/mattn/go-tty"
)

// openConsole returns the writer log lines go to. With useTTY the console is
// the controlling terminal, so kernel output survives stdout redirection.
func openConsole(useTTY bool) (io.Writer, func() error, error) {
	if !useTTY {
		return os.Stdout, func() error { return nil }, nil
	}
	t, err := tty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open tty: %w", err)
	}
	return t.Output(), t.Close, nil
}
