/*
Package bridge implements the request/response protocol with the evaluator device.

One Evaluate call walks a fixed state machine:

	Idle → Opening → Writing → Reading → Closing → Succeeded | Failed

The request is the trimmed, lower-cased expression followed by a single "\n".
The reply is read up to ReadBudget bytes within the channel timeouts; a short or
empty read ends the reply and is not an error. Every path that opened a channel
passes through Closing before Evaluate returns.

Replies containing the "nan" sentinel fail with domain.ErrSyntax. Decimal replies
are normalized (integers without decimals, anything else with six); other replies
such as "ovf" or "inf" are passed through as display text.
*/
package bridge
