/*
Package domain contains the core models shared by the Bifrost editor and bridge.

It defines the closed token enumeration driving the expression editor, the
per-session state (last result and history), channel configuration for the
evaluator device and the typed errors returned by an evaluation. This package is
kept free of I/O so that the editor and the bridge stay independently testable.

# Key Entities

  - Token: A keypad key with its TokenClass and resolution rule.
  - Session: LastResult and the most-recent-first History.
  - ChannelConfig: Channel name, baud rate and timeout composition.
  - NormalizedValue: A device reply after the decimal policy was applied.
  - EvalError: A typed evaluation failure (see ErrChannelUnavailable and friends).
*/
package domain
