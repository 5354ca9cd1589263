package bifrost

import (
	"context"
	"time"

	"github.com/aretw0/bifrost/pkg/domain"
)

// AsyncGrace is added to the composed channel timeouts to bound EvaluateAsync.
const AsyncGrace = time.Second

// Outcome is the result of an asynchronous evaluation.
type Outcome struct {
	Value domain.NormalizedValue
	Err   error
}

// EvaluateAsync starts an evaluation off the caller goroutine and returns a channel
// that receives exactly one Outcome before being closed.
// The wait is bounded by the channel timeouts plus AsyncGrace. The buffer is cleared on
// success only if it was not edited while the request was in flight.
func (c *Calculator) EvaluateAsync(ctx context.Context) (<-chan Outcome, error) {
	if !c.acquire() {
		return nil, domain.ErrEvaluationInFlight
	}

	c.mu.Lock()
	expr := c.editor.Text()
	cfg := c.channel
	revision := c.editor.Revision()
	c.mu.Unlock()

	timeouts := cfg.WithDefaults().Timeouts
	bound := timeouts.WriteTotal(len(expr)+1) + timeouts.ReadTotal(domain.ReadBudget) + AsyncGrace

	out := make(chan Outcome, 1)
	go func() {
		defer close(out)

		ctx, cancel := context.WithTimeout(ctx, bound)
		value, err := c.evaluator.Evaluate(ctx, expr, cfg)
		cancel()

		if err == nil {
			c.mu.Lock()
			c.record(expr, value.Text, revision)
			c.mu.Unlock()
		}

		c.release()
		out <- Outcome{Value: value, Err: err}
	}()
	return out, nil
}
