package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"
)

// Kind classifies an error returned by the xCAT3 service
type Kind int

const (
	// KindClient is any other 4xx status
	KindClient Kind = iota
	// KindBadRequest is a 400 status
	KindBadRequest
	// KindUnauthorized is a 401 status
	KindUnauthorized
	// KindForbidden is a 403 status
	KindForbidden
	// KindNotFound is a 404 status
	KindNotFound
	// KindConflict is a 409 status, the service detected a concurrent update
	KindConflict
	// KindServiceUnavailable is a 503 status
	KindServiceUnavailable
	// KindConnectionRefused means the service or one of its backends
	// refused the connection
	KindConnectionRefused
	// KindServer is any other 5xx status
	KindServer
)

var kindNames = map[Kind]string{
	KindClient:             "Client error",
	KindBadRequest:         "Bad request",
	KindUnauthorized:       "Unauthorized",
	KindForbidden:          "Forbidden",
	KindNotFound:           "Not found",
	KindConflict:           "Conflict",
	KindServiceUnavailable: "Service unavailable",
	KindConnectionRefused:  "Connection refused",
	KindServer:             "Server error",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Error is returned for a failed request to the xCAT3 service
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	URL     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Method, e.URL, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s (HTTP %d): %s %s", e.Kind, e.Status, e.Method, e.URL)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the request may succeed when sent again
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindConflict, KindServiceUnavailable, KindConnectionRefused:
		return true
	}
	return false
}

// IsRetryable reports whether err is a conflict, an unavailable service or
// a refused connection.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// IsNotFound reports whether the service answered 404
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	}
	if status >= 500 {
		return KindServer
	}
	return KindClient
}

// fromResponse builds the error of a non-2xx response. A 400 whose body
// mentions a refused connection is reported as KindConnectionRefused.
func fromResponse(status int, body []byte, method, url string) *Error {
	kind := kindForStatus(status)
	text := string(body)
	if status == http.StatusBadRequest && (strings.Contains(text, "Connection refused") || strings.Contains(text, "actively refused")) {
		kind = KindConnectionRefused
	}
	return &Error{
		Kind:    kind,
		Status:  status,
		Method:  method,
		URL:     url,
		Message: extractErrorMessage(body),
	}
}

// fromTransport wraps an error raised before any response was read
func fromTransport(err error, method, url string) *Error {
	kind := KindClient
	if errors.Is(err, syscall.ECONNREFUSED) {
		kind = KindConnectionRefused
	}
	return &Error{Kind: kind, Method: method, URL: url, Err: err}
}

// extractErrorMessage returns the fault string of a body shaped as
// {"error_message": "<json object>"}, or the trimmed body otherwise.
func extractErrorMessage(body []byte) string {
	var outer struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &outer); err != nil || outer.ErrorMessage == "" {
		return strings.TrimSpace(string(body))
	}

	var inner struct {
		FaultString string `json:"faultstring"`
		Message     string `json:"message"`
	}
	if err := json.Unmarshal([]byte(outer.ErrorMessage), &inner); err != nil {
		return outer.ErrorMessage
	}
	if inner.FaultString != "" {
		return inner.FaultString
	}
	if inner.Message != "" {
		return inner.Message
	}
	return outer.ErrorMessage
}
