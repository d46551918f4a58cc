//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// leading dots would make produced files hidden
const (
	forbiddenNameChars = string(os.PathSeparator) + string(os.PathListSeparator)
	trimNameLeft       = "."
)

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
