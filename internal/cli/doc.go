// Package cli implements the bifrost commands on top of a shared Stack:
// the interactive keypad session, one-shot evaluation and device listing.
package cli
