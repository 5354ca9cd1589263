// Package tui renders the interactive session for terminals: the banner,
// a colored caret view and the history table.
package tui
