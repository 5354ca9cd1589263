package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Input(t *testing.T) {
	in := strings.NewReader(`"1 + 2"` + "\n" + `{"command": "hist 0"}` + "\n" + "caret 1\n" + "=")
	h := NewJSONHandler(in, io.Discard)
	ctx := context.Background()

	for _, want := range []string{"1 + 2", "hist 0", "caret 1", "="} {
		got, err := h.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Output(t *testing.T) {
	var out bytes.Buffer
	h := NewJSONHandler(strings.NewReader(""), &out)
	ctx := context.Background()

	require.NoError(t, h.Output(ctx, Frame{
		State:  domain.Snapshot{Text: "", LastResult: "4", History: []string{"2+2 = 4"}},
		Result: "4",
	}))
	require.NoError(t, h.SystemOutput(ctx, "ready"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var frame map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &frame))
	assert.Equal(t, "4", frame["result"])
	assert.NotContains(t, frame, "error")
	state := frame["state"].(map[string]any)
	assert.Equal(t, "4", state["last_result"])

	assert.JSONEq(t, `{"system":"ready"}`, lines[1])
}
