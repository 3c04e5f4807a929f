package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	apperrors "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/errors"
)

const (
	maxErrorBody    = 1 << 20
	maxErrorSnippet = 512
)

// errorEnvelope is the part of the shop API envelope present on failures.
type errorEnvelope struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// statusErrors maps the statuses the storefront distinguishes. Others become
// an upstream failure carrying the status.
var statusErrors = map[int]func(msg string) *apperrors.AppError{
	http.StatusBadRequest:         apperrors.InvalidInput,
	http.StatusUnauthorized:       apperrors.Unauthorized,
	http.StatusForbidden:          apperrors.Forbidden,
	http.StatusConflict:           apperrors.Conflict,
	http.StatusServiceUnavailable: apperrors.Unavailable,
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an AppError. An envelope body keeps its code and message;
// any other body is quoted, trimmed to a short snippet.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.Upstream(serviceName, fmt.Sprintf("status %d (failed to read body: %v)", resp.StatusCode, err))
	}
	return mapStatus(resp.StatusCode, describeBody(raw), serviceName)
}

func describeBody(raw []byte) string {
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Code != nil {
		return fmt.Sprintf("code %d: %s", *env.Code, env.Message)
	}
	s := strings.TrimSpace(string(raw))
	if len(s) <= maxErrorSnippet {
		return s
	}
	cut := maxErrorSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func mapStatus(status int, message, serviceName string) error {
	if status == http.StatusNotFound {
		return apperrors.NotFound(serviceName+" resource", message)
	}
	if ctor, ok := statusErrors[status]; ok {
		return ctor(serviceName + ": " + message)
	}
	return apperrors.Upstream(serviceName, fmt.Sprintf("status %d: %s", status, message))
}
