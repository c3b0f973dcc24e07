package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ShouldPrintBanner reports whether f is an interactive terminal.
// Editors launch the server with piped stdio; they never get a banner.
func ShouldPrintBanner(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintBanner writes the startup banner with the version and listen address.
func PrintBanner(w io.Writer, version, addr string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	// Cool gradient, top to bottom (Teal/Cyan/Sky)
	lines := []struct {
		text  string
		color string
	}{
		{"   ___         _   _                    ", "#2dd4bf"},
		{"  / __|___ _ _| |_(_)_ _ _  _ _  _ _ __  ", "#22d3ee"},
		{" | (__/ _ \\ ' \\  _| | ' \\ || | || | '  \\ ", "#38bdf8"},
		{"  \\___\\___/_||_\\__|_|_||_\\_,_|\\_,_|_|_|_|", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	info := fmt.Sprintf("  v%s  listening on http://%s", strings.TrimSpace(version), addr)
	fmt.Fprintln(w, out.String(info).Faint())
	fmt.Fprintln(w)
}
