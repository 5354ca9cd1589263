package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/bifrost"
	"github.com/aretw0/bifrost/pkg/adapters/memory"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalculator(replies ...string) *bifrost.Calculator {
	return bifrost.New(memory.NewDevice(memory.Replies(replies...)),
		bifrost.WithChannel(domain.ChannelConfig{
			Name:     "mem",
			Timeouts: domain.Timeouts{ReadInterval: time.Millisecond, ReadTotalConstant: 100 * time.Millisecond},
		}),
	)
}

func TestRunner_TextSession(t *testing.T) {
	in := strings.NewReader("/ 2\n=\nstate\nbogus\nquit\n")
	var out bytes.Buffer

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(in, &out)))
	require.NoError(t, r.Run(context.Background(), newCalculator("0")))

	text := out.String()
	assert.Contains(t, text, runner.DefaultGreeting)
	assert.Contains(t, text, "[0/2|]")
	assert.Contains(t, text, "= 0\n[|]")
	assert.Contains(t, text, "0: 0/2 = 0")
	assert.Contains(t, text, `error: unknown token: "bogus"`)
}

func TestRunner_JSONSession(t *testing.T) {
	in := strings.NewReader(`"sin"` + "\n" + `{"command":"="}` + "\n" + "1 + 1 =\n")
	var out bytes.Buffer

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewJSONHandler(in, &out)),
		runner.WithHeadless(true),
	)
	require.NoError(t, r.Run(context.Background(), newCalculator("nan", "2")))

	dec := json.NewDecoder(&out)
	var frames []runner.Frame
	for dec.More() {
		var f runner.Frame
		require.NoError(t, dec.Decode(&f))
		frames = append(frames, f)
	}
	require.Len(t, frames, 3)

	assert.Equal(t, "sin()", frames[0].State.Text)
	assert.Equal(t, 4, frames[0].State.Caret)

	assert.Equal(t, "syntax_error", frames[1].Kind)
	assert.Equal(t, "sin()", frames[1].State.Text, "a failed evaluation keeps the buffer")

	assert.Equal(t, "2", frames[2].Result)
	assert.Equal(t, []string{"sin(1+1) = 2"}, frames[2].State.History, "keys land at the caret inside the parentheses")
}

func TestRunner_ContextCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(pr, &out)), runner.WithHeadless(true))

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, newCalculator()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop on cancellation")
	}
}

func TestExecute_Commands(t *testing.T) {
	calc := newCalculator("9")
	ctx := context.Background()

	frame := runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandInsert, Tokens: []domain.TokenID{
		domain.TokenOne, domain.TokenTwo, domain.TokenThree,
	}})
	assert.Equal(t, "123", frame.State.Text)

	frame = runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandSelect, Args: []int{0, 2}})
	assert.Equal(t, 2, frame.State.SelectionLength)

	frame = runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandDelete})
	assert.Equal(t, "3", frame.State.Text)

	frame = runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandHistory, Args: []int{0}})
	assert.Equal(t, "history_out_of_range", frame.Kind)

	frame = runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandEvaluate})
	assert.Equal(t, "9", frame.Result)

	frame = runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandState})
	assert.True(t, frame.ShowHistory)
	assert.Equal(t, []string{"3 = 9"}, frame.State.History)

	frame = runner.Execute(ctx, calc, runner.Command{Kind: runner.CommandReset})
	assert.Empty(t, frame.State.LastResult)
}
