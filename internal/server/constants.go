// Package server provides HTTP and WebSocket handlers
package server

// Server configuration constants
const (
	// Default page size for session listings
	DefaultSessionLimit = 20

	// Text truncation limit for status/event payloads
	TextPreviewLimit = 500
)
