package editor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
)

// Sentinel is the marker the device uses to report an evaluation error.
const Sentinel = "nan"

// Editor is the expression buffer plus caret and selection.
// It is not safe for concurrent use; callers serialize access.
type Editor struct {
	buf      []rune
	caret    int
	selLen   int
	revision uint64

	session *domain.Session
	onFocus func()
	logger  *slog.Logger
}

// Option configures the Editor.
type Option func(*Editor)

// WithLogger configures a logger for dropped requests.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithFocusHandler registers the callback invoked when the editor requests focus.
func WithFocusHandler(fn func()) Option {
	return func(e *Editor) {
		e.onFocus = fn
	}
}

// New creates an empty editor bound to session.
func New(session *domain.Session, opts ...Option) *Editor {
	if session == nil {
		session = domain.NewSession()
	}
	e := &Editor{
		session: session,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Text returns the buffer content.
func (e *Editor) Text() string {
	return string(e.buf)
}

// Caret returns the caret offset in runes.
func (e *Editor) Caret() int {
	return e.caret
}

// Selection returns the selection start and length.
func (e *Editor) Selection() (int, int) {
	return e.caret, e.selLen
}

// Revision increases on every buffer or caret mutation.
func (e *Editor) Revision() uint64 {
	return e.revision
}

// Session returns the session the editor reads the last result from.
func (e *Editor) Session() *domain.Session {
	return e.session
}

// Insert applies one keypad token to the buffer.
func (e *Editor) Insert(id domain.TokenID) error {
	tok, ok := domain.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownToken, int(id))
	}

	if strings.Contains(strings.ToLower(string(e.buf)), Sentinel) {
		e.reset()
	}

	cached := e.caret

	text := tok.Text
	if tok.Class == domain.ClassRecall {
		if e.session.LastResult == "" {
			return nil
		}
		text = e.session.LastResult
	}

	if domain.IsOperator(text) && len(e.buf) == 0 {
		if e.session.LastResult == "" {
			text = "0" + text
		} else {
			text = e.session.LastResult + text
		}
	}

	if domain.IsFunction(text) {
		text += "()"
		e.replaceSelection(text)
		e.caret--
	} else {
		e.replaceSelection(text)
		if text == "()" {
			e.caret--
		}
	}

	if len(e.buf) == 1 {
		e.caret = 1
	} else if id == domain.TokenPi {
		e.caret = cached + len([]rune(text))
	}

	e.requestFocus()
	return nil
}

// Delete removes the selection, or the rune before the caret.
func (e *Editor) Delete() {
	switch {
	case e.selLen > 0:
		e.buf = append(e.buf[:e.caret], e.buf[e.caret+e.selLen:]...)
		e.selLen = 0
		e.revision++
	case e.caret > 0 && len(e.buf) > 0:
		e.buf = append(e.buf[:e.caret-1], e.buf[e.caret:]...)
		e.caret--
		e.revision++
	}
	e.requestFocus()
}

// Clear empties the buffer and the history together.
func (e *Editor) Clear() {
	e.reset()
	e.session.ClearHistory()
}

// ClearBuffer empties the buffer, re-homes the caret and requests focus.
func (e *Editor) ClearBuffer() {
	e.reset()
	e.requestFocus()
}

// SetCaret moves the caret and drops the selection.
// Negative positions are logged and ignored; positions past the end clamp to it.
func (e *Editor) SetCaret(pos int) {
	if pos < 0 {
		e.logger.Warn("Caret request dropped", "caret", pos, "err", domain.ErrCaretOutOfRange)
		return
	}
	if pos > len(e.buf) {
		pos = len(e.buf)
	}
	e.caret = pos
	e.selLen = 0
	e.revision++
}

// Select sets the selection to [start, start+length), clamped to the buffer.
func (e *Editor) Select(start, length int) {
	if start < 0 {
		e.logger.Warn("Selection request dropped", "start", start, "err", domain.ErrCaretOutOfRange)
		return
	}
	if start > len(e.buf) {
		start = len(e.buf)
	}
	if length < 0 {
		length = 0
	}
	if length > len(e.buf)-start {
		length = len(e.buf) - start
	}
	e.caret = start
	e.selLen = length
	e.revision++
}

// SelectHistory inserts the result of a history entry into the selection.
func (e *Editor) SelectHistory(index int) error {
	entry, err := e.session.Entry(index)
	if err != nil {
		return err
	}
	if entry.Result == "" {
		return nil
	}
	e.replaceSelection(entry.Result)
	return nil
}

func (e *Editor) replaceSelection(text string) {
	ins := []rune(text)
	start, end := e.caret, e.caret+e.selLen

	out := make([]rune, 0, len(e.buf)-e.selLen+len(ins))
	out = append(out, e.buf[:start]...)
	out = append(out, ins...)
	out = append(out, e.buf[end:]...)

	e.buf = out
	e.caret = start + len(ins)
	e.selLen = 0
	e.revision++
}

func (e *Editor) reset() {
	e.buf = nil
	e.caret = 0
	e.selLen = 0
	e.revision++
}

func (e *Editor) requestFocus() {
	if e.onFocus != nil {
		e.onFocus()
	}
}
