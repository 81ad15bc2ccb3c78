// Package httpserver builds the process's HTTP server. Several handlers
// block on model round trips, so the write timeout is sized for a slow chat
// completion while header reads stay tight.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	// readTimeout bounds the request body; audit image uploads run to a few
	// MiB, nothing longer.
	readTimeout = 30 * time.Second
	// writeTimeout must outlast generation plus retrieval on a cold cache.
	writeTimeout = 2 * time.Minute
	idleTimeout  = 2 * time.Minute
)

// New builds the HTTP server around the router.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
