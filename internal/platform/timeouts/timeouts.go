// Package timeouts defines shared timeout constants used by the web front end.
package timeouts

import "time"

// BackendRequest caps a single call to the spa REST API.
const BackendRequest = 5 * time.Second

// Bootstrap caps the one-time "who am I" check for a new browser session.
const Bootstrap = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// LiveWrite bounds a single websocket frame write to a browser.
const LiveWrite = 10 * time.Second
