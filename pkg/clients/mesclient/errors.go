package mesclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Banner messages shown for failed screens
const (
	NetworkErrorMessage  = "서버에 연결할 수 없습니다. 네트워크 상태를 확인한 뒤 새로고침해 주세요."
	fallbackErrorMessage = "요청을 처리하지 못했습니다. (HTTP %d)"
	unknownErrorMessage  = "알 수 없는 오류가 발생했습니다. 새로고침해 주세요."
)

// ErrNetwork matches every transport-level failure
var ErrNetwork = errors.New("network failure")

// NetworkError wraps a timeout, refused connection or other transport failure
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNetwork) match any NetworkError
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Message    string // Backend-supplied message, empty if none was given
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// UserMessage returns the backend message verbatim, or a generic fallback
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf(fallbackErrorMessage, e.StatusCode)
}

// IsNotFound reports whether the error is a 404 response
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// isUnsupported reports whether the backend lacks the endpoint (404 or 405)
func isUnsupported(err error) bool {
	return hasStatus(err, http.StatusNotFound) || hasStatus(err, http.StatusMethodNotAllowed)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// newAPIError extracts a message from a JSON error body of the form
// {"message": ...}, {"detail": ...} or {"error": ...}
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	switch {
	case strings.TrimSpace(payload.Message) != "":
		apiErr.Message = strings.TrimSpace(payload.Message)
	case len(payload.Detail) > 0:
		// detail may be a string or a structured validation list
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Message = strings.TrimSpace(detail)
		} else if string(payload.Detail) != "null" {
			apiErr.Message = string(payload.Detail)
		}
	case strings.TrimSpace(payload.Error) != "":
		apiErr.Message = strings.TrimSpace(payload.Error)
	}
	return apiErr
}

// UserMessage maps any error from this package onto the page-level banner text
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrNetwork):
		return NetworkErrorMessage
	case errors.As(err, &apiErr):
		return apiErr.UserMessage()
	default:
		return unknownErrorMessage
	}
}
