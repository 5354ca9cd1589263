/*
Package session keeps the calculators of concurrent users (HTTP clients, MCP agents)
apart.

Each session owns one Calculator. Multi-step operations on a session run under a
per-session lock; an optional distributed locker extends that guarantee across
replicas sharing the same session IDs.
*/
package session
