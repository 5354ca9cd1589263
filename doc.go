/*
Package bifrost composes a keypad-driven expression editor with a bridge to an
external numeric evaluator reached over a byte-stream channel (a serial port, a
TCP serial server or a local emulator process).

# Concept

A Calculator owns three things: the expression buffer (see pkg/editor), the
session state that outlives a single edit (the last result and the history), and
the channel configuration used to reach the device. Presentation layers (a REPL,
an HTTP API, an MCP server) deliver token events and render Snapshots; they never
evaluate anything themselves.

The device protocol is a single line per request: the expression, lower-cased and
trimmed, followed by "\n". The device answers with at most 200 ASCII bytes; a reply
containing "nan" reports a syntax error, anything else is normalized to a decimal
with zero or six fractional digits (see pkg/bridge).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/bifrost"
		"github.com/aretw0/bifrost/pkg/adapters"
		"github.com/aretw0/bifrost/pkg/domain"
	)

	func main() {
		calc := bifrost.New(adapters.NewRouter(),
			bifrost.WithChannel(domain.ChannelConfig{Name: "/dev/ttyUSB0", Baud: 9600}),
		)

		ctx := context.Background()
		for _, id := range []domain.TokenID{domain.TokenTwo, domain.TokenAdd, domain.TokenTwo} {
			if err := calc.Insert(ctx, id); err != nil {
				log.Fatal(err)
			}
		}

		value, err := calc.Evaluate(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(value.Text) // 4
	}

# Concurrency

All Calculator methods are safe for concurrent use. At most one evaluation is in
flight per Calculator: a second Evaluate or EvaluateAsync while one is running
fails immediately with domain.ErrEvaluationInFlight.
*/
package bifrost
