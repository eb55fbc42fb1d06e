package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the titrate banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Red to rose, one stop per line
	lines := []struct {
		text  string
		color string
	}{
		{"  _   _ _             _       ", "#ef4444"},
		{" | |_(_) |_ _ __ __ _| |_ ___ ", "#f43f5e"},
		{" | __| | __| '__/ _` | __/ _ \\", "#ec4899"},
		{" | |_| | |_| | | (_| | ||  __/", "#d946ef"},
		{"  \\__|_|\\__|_|  \\__,_|\\__\\___|", "#a855f7"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", termenv.String("v"+version).Faint())
}
