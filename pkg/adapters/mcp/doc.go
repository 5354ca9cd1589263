// Package mcp exposes the calculator to AI agents over the Model Context Protocol.
package mcp
