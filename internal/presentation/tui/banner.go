package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                  _           ", "#818cf8"},
	{"  _ __  __ _ _ __| |___ _  _  ", "#a78bfa"},
	{" | '_ \\/ _` | '_ | / -_) || | ", "#c084fc"},
	{" | .__/\\__,_|_|  |_\\___|\\_, | ", "#e879f9"},
	{" |_|                    |__/  ", "#f472b6"},
}

// PrintBanner writes the parley banner and a one-line subtitle to w.
// Colors follow the terminal's detected profile and degrade to plain text.
func PrintBanner(w io.Writer, subtitle string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, termenv.String(" "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
