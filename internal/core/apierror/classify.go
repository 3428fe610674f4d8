package apierror

import (
	"encoding/json"
	"errors"
	"strings"
)

// User-facing messages.
const (
	MsgNetwork         = "Network error. Please check your internet connection."
	MsgUnexpected      = "An unexpected error occurred. Please try again."
	MsgRequestFailed   = "Request failed"
	MsgValidationEntry = "Validation error"
)

var statusMessages = map[int]string{
	400: "Invalid request. Please check your input.",
	401: "Session expired. Please log in again.",
	403: "You don't have permission to perform this action.",
	404: "Resource not found.",
	409: "This action conflicts with existing data.",
	422: "Validation failed. Please check your input.",
	429: "Too many requests. Please try again later.",
	500: "Server error. Please try again later.",
	502: "Server error. Please try again later.",
	503: "Server error. Please try again later.",
}

// Classify maps an error to the message shown to the user.
//
// Rules in priority order: server message, server error, joined validation
// errors, fixed status table (then status text, then "Request failed"),
// network failure, the error's own message, and a generic fallback.
func Classify(err error) string {
	if err == nil {
		return MsgUnexpected
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if p := apiErr.Payload; p != nil {
			if p.Message != "" {
				return p.Message
			}
			if p.Error != "" {
				return p.Error
			}
			if len(p.Errors) > 0 {
				return joinErrors(p.Errors)
			}
		}
		if apiErr.Status != 0 {
			if msg, ok := statusMessages[apiErr.Status]; ok {
				return msg
			}
			if apiErr.StatusText != "" {
				return apiErr.StatusText
			}
			return MsgRequestFailed
		}
		if apiErr.RequestSent {
			return MsgNetwork
		}
		if apiErr.Err != nil && apiErr.Err.Error() != "" {
			return apiErr.Err.Error()
		}
		return MsgUnexpected
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnexpected
}

func joinErrors(entries []json.RawMessage) string {
	msgs := make([]string, 0, len(entries))
	for _, entry := range entries {
		var s string
		if json.Unmarshal(entry, &s) == nil {
			msgs = append(msgs, s)
			continue
		}
		var obj struct {
			Message *string `json:"message"`
		}
		if json.Unmarshal(entry, &obj) == nil && obj.Message != nil {
			msgs = append(msgs, *obj.Message)
			continue
		}
		msgs = append(msgs, MsgValidationEntry)
	}
	return strings.Join(msgs, ", ")
}

// IsNetworkError reports whether a request was sent and no response arrived.
func IsNetworkError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.RequestSent && apiErr.Status == 0
}

// IsAuthError reports whether the server answered 401.
func IsAuthError(err error) bool {
	return statusOf(err) == 401
}

// IsValidationError reports whether the server answered 400 or 422.
func IsValidationError(err error) bool {
	s := statusOf(err)
	return s == 400 || s == 422
}

func statusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Category is the coarse error taxonomy.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryConflict   Category = "conflict"
	CategoryNotFound   Category = "not_found"
	CategoryServer     Category = "server"
	CategoryUnexpected Category = "unexpected"
)

// Categorize places err in the taxonomy.
func Categorize(err error) Category {
	switch s := statusOf(err); {
	case IsNetworkError(err):
		return CategoryNetwork
	case s == 401:
		return CategoryAuth
	case s == 400 || s == 422:
		return CategoryValidation
	case s == 409:
		return CategoryConflict
	case s == 404:
		return CategoryNotFound
	case s >= 500:
		return CategoryServer
	default:
		return CategoryUnexpected
	}
}
