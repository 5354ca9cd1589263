// Package redis provides a cross-process channel lock backed by Redis.
package redis
