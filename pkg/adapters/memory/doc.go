// Package memory provides in-process adapters: a scripted evaluator device and a
// channel locker. They back tests, examples and single-process deployments.
package memory
