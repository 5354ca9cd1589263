// Package process reaches an evaluator implemented as a local program.
//
// Channel names of the form "exec:<device>" select a device from an allow-list
// (see LoadDevices). One process is started per evaluation: the request line is
// written to its stdin and the reply is read from its stdout. Closing the channel
// closes stdin and reaps the process.
package process
