// Package handlers implements the HTTP surface of the proxy: item info,
// content streaming, uploads, link minting, quota, and upload history.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/taikhoandev/driveshare/internal/auth/token"
	"github.com/taikhoandev/driveshare/internal/graph"
	"github.com/taikhoandev/driveshare/internal/logging"
)

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses and emits the
// {"error": message} body every endpoint uses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var authErr *token.AuthError
	var cfgErr *graph.ConfigError
	var notFound *graph.NotFoundError
	var upstream *graph.UpstreamError

	switch {
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &cfgErr):
		status = http.StatusInternalServerError
	case errors.As(err, &upstream):
		status = http.StatusInternalServerError
	}

	log.Printf("[%s] %s %s failed: %v", logging.GetRequestID(r.Context()), r.Method, r.URL.Path, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// GetOrGenerateRequestID retrieves X-Request-ID from header or generates one.
func GetOrGenerateRequestID(r *http.Request) string {
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		return requestID
	}
	return logging.GenerateRequestID()
}

// requestBaseURL derives the server origin for minted links, preferring the
// configured public URL and falling back to the request's forwarding headers.
func requestBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		host = "localhost:8080"
	}
	return proto + "://" + host
}
