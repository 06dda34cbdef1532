// Package ui renders the terminal surface: banner, per-result lines, and
// the end-of-run summary.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/ipintel/ipintel/pkg/defaults"
)

const banner = `
  _       _       _       _
 (_)_ __ (_)_ __ | |_ ___| |
 | | '_ \| | '_ \| __/ _ \ |
 | | |_) | | | | | ||  __/ |
 |_| .__/|_|_| |_|\__\___|_|
   |_|
`

// Banner writes the startup banner unless quiet mode is on.
func Banner(w io.Writer) {
	if Quiet() {
		return
	}
	if NoColor() {
		fmt.Fprintf(w, "%s  ipintel v%s\n\n", banner, defaults.Version)
		return
	}
	fmt.Fprintf(w, "%s  %s %s\n\n",
		BannerStyle.Render(banner),
		TitleStyle.Render("ipintel"),
		VersionStyle.Render("v"+defaults.Version))
}

// ConfigLine renders one "label: value" row of the run configuration.
func ConfigLine(w io.Writer, label, value string) {
	if Quiet() {
		return
	}
	if NoColor() {
		fmt.Fprintf(w, "  %-14s %s\n", label+":", value)
		return
	}
	fmt.Fprintf(w, "  %s %s\n",
		ConfigLabelStyle.Render(label+":"),
		ConfigValueStyle.Render(value))
}

// Section renders a section header.
func Section(w io.Writer, title string) {
	if Quiet() {
		return
	}
	if NoColor() {
		fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
		return
	}
	fmt.Fprintln(w, SectionStyle.Render(title))
}
