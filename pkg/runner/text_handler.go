package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/bifrost/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer FrameRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the frame renderer.
func WithTextHandlerRenderer(renderer FrameRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines off the caller goroutine so that Input can honor ctx.
func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Input prompts and reads one sanitized line.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// Output prints the frame through the renderer, or in plain text.
func (h *TextHandler) Output(ctx context.Context, frame Frame) error {
	if h.Renderer != nil {
		if out, err := h.Renderer(frame); err == nil {
			_, err = fmt.Fprintln(h.Writer, strings.TrimRight(out, "\n"))
			return err
		}
	}
	_, err := fmt.Fprintln(h.Writer, RenderPlain(frame))
	return err
}

// SystemOutput prints a meta-message.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintln(h.Writer, msg)
	return err
}

// RenderPlain renders a frame without styling: the expression with a "|" caret,
// then the result or the error, then the history when requested.
func RenderPlain(frame Frame) string {
	var b strings.Builder
	switch {
	case frame.Error != "":
		fmt.Fprintf(&b, "error: %s\n", frame.Error)
	case frame.Result != "":
		fmt.Fprintf(&b, "= %s\n", frame.Result)
	}
	b.WriteString("[")
	b.WriteString(CaretView(frame.State))
	b.WriteString("]")
	if frame.ShowHistory {
		for i, line := range frame.State.History {
			fmt.Fprintf(&b, "\n  %d: %s", i, line)
		}
	}
	return b.String()
}

// CaretView returns the expression with "|" at the caret, or the selection in braces.
func CaretView(s domain.Snapshot) string {
	runes := []rune(s.Text)
	start := min(max(s.SelectionStart, 0), len(runes))
	end := min(start+max(s.SelectionLength, 0), len(runes))
	if end > start {
		return string(runes[:start]) + "{" + string(runes[start:end]) + "}" + string(runes[end:])
	}
	caret := min(max(s.Caret, 0), len(runes))
	return string(runes[:caret]) + "|" + string(runes[caret:])
}
