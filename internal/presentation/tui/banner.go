package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Arbor banner to w, colored when the terminal allows.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"     _            _", "#34d399"},
		{"    / \\   _ __ __| |__   ___  _ __", "#10b981"},
		{"   / _ \\ | '__/ _` | '_ \\ / _ \\| '__|", "#059669"},
		{"  / ___ \\| | | (_| | |_) | (_) | |", "#047857"},
		{" /_/   \\_\\_|  \\__,_|_.__/ \\___/|_|", "#065f46"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colors a run or node status for terminal output.
func Status(s string) string {
	p := termenv.ColorProfile()
	color := "#9ca3af"
	switch s {
	case "completed":
		color = "#10b981"
	case "failed":
		color = "#ef4444"
	case "running":
		color = "#f59e0b"
	}
	return termenv.String(s).Foreground(p.Color(color)).String()
}
