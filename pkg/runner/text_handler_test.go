package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Input(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("  1 + 2 \n\x1b[2J3\n"), &out)

	line, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1 + 2", line)

	line, err = h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[2J3", line, "escape characters are stripped")

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", out.String())
}

func TestTextHandler_InputCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := NewTextHandler(pr, &out).Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String(), "no prompt once the context is done")
}

func TestTextHandler_OutputRenderer(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(f Frame) (string, error) {
		return "Rendered: " + f.State.Text + "\n", nil
	}))

	require.NoError(t, h.Output(context.Background(), Frame{State: domain.Snapshot{Text: "1+1"}}))
	assert.Equal(t, "Rendered: 1+1\n", out.String())
}

func TestRenderPlain(t *testing.T) {
	snap := domain.Snapshot{Text: "sin()", Caret: 4, SelectionStart: 4, History: []string{"2+2 = 4"}}
	assert.Equal(t, "[sin(|)]", RenderPlain(Frame{State: snap}))
	assert.Equal(t, "= 4\n[sin(|)]\n  0: 2+2 = 4", RenderPlain(Frame{State: snap, Result: "4", ShowHistory: true}))
	assert.Equal(t, "error: syntax error\n[sin(|)]", RenderPlain(Frame{State: snap, Error: "syntax error"}))
}

func TestCaretView(t *testing.T) {
	assert.Equal(t, "|", CaretView(domain.Snapshot{}))
	assert.Equal(t, "1{23}4", CaretView(domain.Snapshot{Text: "1234", Caret: 1, SelectionStart: 1, SelectionLength: 2}))
	assert.Equal(t, "√|", CaretView(domain.Snapshot{Text: "√", Caret: 9}), "caret clamps to the rune length")
}
