package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/complyscope/complyscope/pkg/defaults"
)

// Version information. Commit can be overridden at build time:
// go build -ldflags "-X github.com/complyscope/complyscope/pkg/ui.Commit=abc123"
var (
	Version = defaults.Version
	Commit  = "dev"
)

// VersionString returns "complyscope X.Y.Z (commit)".
func VersionString() string {
	return fmt.Sprintf("%s %s (%s)", defaults.ToolName, Version, Commit)
}

var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent suppresses banners and summaries.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled.
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

const miniBanner = `
________________________________________________

 %s v%s
________________________________________________`

// PrintBanner writes the boxed banner to w unless silent.
func PrintBanner(w io.Writer) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(w, BannerStyle.Render(fmt.Sprintf(miniBanner, defaults.ToolName, Version)))
	fmt.Fprintln(w)
}

// PrintOption writes one configuration line in the banner style:
//
//	:: Option              : Value
func PrintOption(w io.Writer, name, value string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(w, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}
