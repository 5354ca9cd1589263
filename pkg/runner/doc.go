/*
Package runner implements the interactive loop that drives a Calculator from a line
stream (a terminal or a JSON-Lines pipe).

Every line is a command: keypad labels to insert ("7 + sin"), "=" to evaluate, or one
of the editing commands listed by Help. After each command the runner emits a Frame
holding the calculator Snapshot and the outcome of the command.

# Key Components

  - Runner: the loop. Command errors (syntax errors reported by the device, an
    unreachable channel) are reported in the Frame and the loop goes on.
  - IOHandler: decouples how lines are read and frames are written.
  - TextHandler: interactive terminal usage with a "> " prompt.
  - JSONHandler: NDJSON for scripts and host processes.

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)),
		runner.WithHeadless(true),
	)
	if err := r.Run(ctx, calc); err != nil {
		log.Fatal(err)
	}
*/
package runner
