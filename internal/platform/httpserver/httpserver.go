package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. The write timeout sits above the router's 30s
// per-request timeout so the middleware deadline fires first and the client
// still gets a response body.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
