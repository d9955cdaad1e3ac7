package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfigError reports that required site addressing is absent, so the
// upstream cannot be reached at all.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return "graph: missing configuration: " + e.Missing
}

// NotFoundError reports a 404 from the Graph API.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return "graph: not found: " + e.Resource
}

// UpstreamError reports a non-2xx Graph response with the best-effort
// extracted error message.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("graph: upstream returned %d", e.Status)
	}
	return fmt.Sprintf("graph: upstream returned %d: %s", e.Status, e.Message)
}

// apiError is the Graph error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// extractMessage pulls error.message out of a Graph error body, falling back
// to the raw body text.
func extractMessage(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return strings.TrimSpace(string(body))
}
