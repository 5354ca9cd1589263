/*
Package ports defines the interfaces between the Bifrost core and its adapters.

These interfaces decouple the editor and the evaluation bridge from the concrete
transport, locking and presentation layers.

# Key Interfaces

  - Channel / Opener: The byte-stream transport to the evaluator device (serial, TCP, process).
  - DistributedLocker: Exclusive access to a device across sessions or processes.
  - Calculator: The driving port used by the runner, HTTP and MCP adapters.
  - ExpressionEvaluator: One-shot evaluation of a finished expression.
*/
package ports
