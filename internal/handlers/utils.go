package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrorResponse is the failure envelope: success is always false, error is
// the headline message and errors carries individual validation violations.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Errors  []string `json:"errors,omitempty"`
}

// writeJSONResponse sends a JSON response.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse sends a failure envelope with a single message.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, ErrorResponse{Success: false, Error: message})
}

// writeErrorList sends a failure envelope with the full violation list.
func writeErrorList(w http.ResponseWriter, statusCode int, message string, errs []string) {
	writeJSONResponse(w, statusCode, ErrorResponse{Success: false, Error: message, Errors: errs})
}

// extractIDFromPath pulls a numeric id out of a URL path, ignoring any
// trailing segment such as /status or /products.
func extractIDFromPath(path, prefix string) (int64, error) {
	if !strings.HasPrefix(path, prefix) {
		return 0, fmt.Errorf("invalid path format")
	}

	idStr := strings.TrimPrefix(path, prefix)
	idStr = strings.Split(idStr, "/")[0]
	if idStr == "" {
		return 0, fmt.Errorf("missing id in path")
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", idStr)
	}
	return id, nil
}

// extractSegmentFromPath pulls a raw path segment (e.g. an order id) after a
// prefix.
func extractSegmentFromPath(path, prefix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", fmt.Errorf("invalid path format")
	}
	seg := strings.TrimPrefix(path, prefix)
	seg = strings.Split(seg, "/")[0]
	if seg == "" {
		return "", fmt.Errorf("missing id in path")
	}
	return seg, nil
}
