// Package httpserver constructs the portal's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an *http.Server for the portal router. Timeouts bound slow
// clients; review decisions are small JSON bodies, so the limits are tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
