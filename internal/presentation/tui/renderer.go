package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/bifrost/pkg/runner"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type config struct {
	profile termenv.Profile
	style   string
}

// Option configures the terminal output.
type Option func(*config)

// WithProfile forces a color profile instead of detecting it.
func WithProfile(p termenv.Profile) Option {
	return func(c *config) {
		c.profile = p
	}
}

// WithStyle selects a glamour standard style ("dark", "light", "notty").
func WithStyle(style string) Option {
	return func(c *config) {
		c.style = style
	}
}

func newConfig(opts []Option) *config {
	c := &config{profile: -1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newOutput(w io.Writer, opts []Option) *termenv.Output {
	c := newConfig(opts)
	if c.profile < 0 {
		return termenv.NewOutput(w, termenv.WithProfile(termenv.ColorProfile()))
	}
	return termenv.NewOutput(w, termenv.WithProfile(c.profile))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer(opts ...Option) (func(string) (string, error), error) {
	c := newConfig(opts)
	style := glamour.WithAutoStyle()
	if c.style != "" {
		style = glamour.WithStandardStyle(c.style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// NewFrameRenderer renders runner frames with colors, and the history as a
// markdown table when the frame asks for it.
func NewFrameRenderer(opts ...Option) (runner.FrameRenderer, error) {
	markdown, err := NewRenderer(opts...)
	if err != nil {
		return nil, err
	}
	out := newOutput(io.Discard, opts)

	return func(frame runner.Frame) (string, error) {
		var b strings.Builder
		switch {
		case frame.Error != "":
			label := "error"
			if frame.Kind != "" {
				label = frame.Kind
			}
			fmt.Fprintf(&b, "%s %s\n", out.String("✗ "+label+":").Foreground(out.Color("#f87171")).Bold(), frame.Error)
		case frame.Result != "":
			fmt.Fprintf(&b, "%s\n", out.String("= "+frame.Result).Foreground(out.Color("#4ade80")).Bold())
		}

		b.WriteString(out.String("[" + runner.CaretView(frame.State) + "]").Foreground(out.Color("#a78bfa")).String())
		if frame.State.Evaluating {
			b.WriteString(out.String(" evaluating...").Faint().String())
		}

		if frame.ShowHistory && len(frame.State.History) > 0 {
			table, err := markdown(HistoryTable(frame.State.History))
			if err != nil {
				return "", err
			}
			b.WriteString("\n")
			b.WriteString(strings.TrimRight(table, "\n"))
		}
		return b.String(), nil
	}, nil
}

// HistoryTable formats "expression = result" lines as a markdown table.
func HistoryTable(history []string) string {
	var b strings.Builder
	b.WriteString("| # | Expression | Result |\n|---|---|---|\n")
	for i, line := range history {
		expr, result := line, ""
		if idx := strings.LastIndex(line, " = "); idx >= 0 {
			expr, result = line[:idx], line[idx+3:]
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", i, escapeCell(expr), escapeCell(result))
	}
	return b.String()
}

func escapeCell(s string) string {
	if s == "" {
		return " "
	}
	return cellEscaper.Replace(s)
}

var cellEscaper = strings.NewReplacer("|", `\|`, "*", `\*`)
