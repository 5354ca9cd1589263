package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/runner"
)

// EvalResult is the --json output of RunEval.
type EvalResult struct {
	Expression string                 `json:"expression"`
	Channel    string                 `json:"channel"`
	Value      domain.NormalizedValue `json:"value"`
}

// RunEval sends one raw expression to the configured channel and prints the
// normalized reply.
func RunEval(ctx context.Context, opts Options, expression string) error {
	opts = opts.withDefaults()

	expr, err := runner.SanitizeExpression(expression)
	if err != nil {
		return err
	}

	stack, err := NewStack(opts)
	if err != nil {
		return err
	}
	defer stack.Close()

	cfg := stack.Config.ChannelConfig()
	value, err := stack.NewBridge().Evaluate(ctx, expr, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.ErrorKind(err), err)
	}

	if opts.JSON {
		return json.NewEncoder(opts.Out).Encode(EvalResult{
			Expression: expr,
			Channel:    cfg.Name,
			Value:      value,
		})
	}
	_, err = fmt.Fprintln(opts.Out, value.Text)
	return err
}

// ListDevices prints the exec: devices registered in the devices file.
func ListDevices(opts Options) error {
	opts = opts.withDefaults()

	stack, err := NewStack(opts)
	if err != nil {
		return err
	}
	defer stack.Close()

	names := stack.Devices.Devices()
	if len(names) == 0 {
		printSystemMessage(opts.Out, "No devices registered in %s.", stack.Config.Devices)
		return nil
	}
	for _, name := range names {
		fmt.Fprintf(opts.Out, "exec:%s\n", name)
	}
	return nil
}
