// Package adapters selects a channel transport from the channel name.
//
// Plain names ("COM4", "/dev/ttyUSB0") are serial ports. Scheme-qualified names are
// routed to the matching adapter: "tcp://host:port" to package tcp and
// "exec:<device>" to package process.
package adapters
