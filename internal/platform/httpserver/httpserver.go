package httpserver

import (
	"net/http"
	"time"
)

// New builds the server with timeouts sized for scan traffic: requests are
// small JSON bodies, and the slowest path is bounded by the remote caller
// timeouts, so nothing should hold a connection for long.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
