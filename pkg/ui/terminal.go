package ui

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Global UI state
var (
	noColorMode bool
	quietMode   bool
	uiMu        sync.RWMutex
)

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		termenv.DefaultOutput().Profile = termenv.Ascii
	}
}

// NoColor reports whether color is disabled, either explicitly, via the
// NO_COLOR convention, or because stdout is not a terminal.
func NoColor() bool {
	uiMu.RLock()
	explicit := noColorMode
	uiMu.RUnlock()
	if explicit {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

// SetQuiet suppresses the banner and progress output.
func SetQuiet(quiet bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	quietMode = quiet
}

// Quiet reports whether quiet mode is enabled.
func Quiet() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return quietMode
}
