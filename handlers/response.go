package handlers

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/hireshawk-api/logging"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func acceptsGzip(r *http.Request) bool {
	return r != nil && strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")
}

// RespondWithJSON writes payload as JSON, gzip-compressed when it is large
// enough and the client accepts it
func RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.Header().Add("Vary", "Accept-Encoding")

	if len(data) < compressionThreshold || !acceptsGzip(r) {
		w.WriteHeader(code)
		_, _ = w.Write(data)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(code)

	gz := gzip.NewWriter(w)
	if _, err := gz.Write(data); err != nil {
		logging.Warn("Failed to write compressed response", "error", err)
	}
	if err := gz.Close(); err != nil {
		logging.Warn("Failed to flush compressed response", "error", err)
	}
	logging.Debug("Compressed JSON response", "original_size", len(data))
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	RespondWithJSON(w, r, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}
