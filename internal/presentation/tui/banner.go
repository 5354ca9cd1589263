package tui

import (
	"fmt"
	"io"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  ____  _  __                _   `, "#818cf8"},
	{` | __ )(_)/ _|_ __ ___  ___ | |_ `, "#a78bfa"},
	{` |  _ \| | |_| '__/ _ \/ __|| __|`, "#c084fc"},
	{` | |_) | |  _| | | (_) \__ \| |_ `, "#e879f9"},
	{` |____/|_|_| |_|  \___/|___/ \__|`, "#f472b6"},
}

// PrintBanner writes the Bifrost banner and version to w.
func PrintBanner(w io.Writer, version string, opts ...Option) {
	out := newOutput(w, opts)

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Foreground(out.Color("#fb7185")).Faint())
	fmt.Fprintln(w)
}
