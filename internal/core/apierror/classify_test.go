package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBody(status int, body string) *Error {
	return &Error{Method: "POST", Path: "/api/x", Status: status, RequestSent: true, Payload: ParsePayload([]byte(body))}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "message wins over status", err: withBody(500, `{"message":"Wallet locked","error":"ignored"}`), want: "Wallet locked"},
		{name: "error field", err: withBody(400, `{"error":"Bad bank code"}`), want: "Bad bank code"},
		{name: "errors objects", err: withBody(422, `{"errors":[{"message":"amount too low"},{"message":"currency missing"}]}`), want: "amount too low, currency missing"},
		{name: "errors strings and junk", err: withBody(422, `{"errors":["first",{"field":"x"},7]}`), want: "first, Validation error, Validation error"},
		{name: "non json body falls back to status", err: withBody(404, `<html>nope</html>`), want: "Resource not found."},
		{name: "empty message falls through", err: withBody(409, `{"message":""}`), want: "This action conflicts with existing data."},
		{name: "network", err: &Error{RequestSent: true, Err: errors.New("dial tcp: refused")}, want: MsgNetwork},
		{name: "plain message on unsent request", err: &Error{Err: errors.New("bad url")}, want: "bad url"},
		{name: "plain error", err: errors.New("amount is required"), want: "amount is required"},
		{name: "wrapped api error", err: fmt.Errorf("transfer: %w", withBody(429, `{}`)), want: "Too many requests. Please try again later."},
		{name: "nil", err: nil, want: MsgUnexpected},
		{name: "empty api error", err: &Error{}, want: MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifyStatusTable(t *testing.T) {
	table := map[int]string{
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
	for status, want := range table {
		assert.Equal(t, want, Classify(&Error{Status: status, StatusText: "ignored"}), "status %d", status)
	}

	assert.Equal(t, "I'm a teapot", Classify(&Error{Status: 418, StatusText: "I'm a teapot"}))
	assert.Equal(t, MsgRequestFailed, Classify(&Error{Status: 504}))
}

func TestPredicates(t *testing.T) {
	network := &Error{RequestSent: true}
	auth := &Error{Status: 401, RequestSent: true}
	bad := &Error{Status: 400, RequestSent: true}
	unprocessable := &Error{Status: 422, RequestSent: true}

	assert.True(t, IsNetworkError(network))
	assert.False(t, IsNetworkError(auth))
	assert.False(t, IsNetworkError(&Error{}))
	assert.False(t, IsNetworkError(errors.New("x")))

	assert.True(t, IsAuthError(auth))
	assert.False(t, IsAuthError(bad))

	assert.True(t, IsValidationError(bad))
	assert.True(t, IsValidationError(unprocessable))
	assert.False(t, IsValidationError(auth))
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, CategoryNetwork, Categorize(&Error{RequestSent: true}))
	assert.Equal(t, CategoryAuth, Categorize(&Error{Status: 401}))
	assert.Equal(t, CategoryValidation, Categorize(&Error{Status: 422}))
	assert.Equal(t, CategoryConflict, Categorize(&Error{Status: 409}))
	assert.Equal(t, CategoryNotFound, Categorize(&Error{Status: 404}))
	assert.Equal(t, CategoryServer, Categorize(&Error{Status: 502}))
	assert.Equal(t, CategoryUnexpected, Categorize(errors.New("boom")))
}

func TestParsePayload(t *testing.T) {
	assert.Nil(t, ParsePayload([]byte(`[]`)))
	assert.Nil(t, ParsePayload([]byte(`{"status":"bad"}`)))

	p := ParsePayload([]byte(`{"message":{"nested":true},"error":"e","errors":"not-a-list"}`))
	if assert.NotNil(t, p) {
		assert.Empty(t, p.Message)
		assert.Equal(t, "e", p.Error)
		assert.Empty(t, p.Errors)
	}

	p = ParsePayload([]byte(`{"errors":[{"message":"m"}]}`))
	if assert.NotNil(t, p) {
		assert.Equal(t, []json.RawMessage{json.RawMessage(`{"message":"m"}`)}, p.Errors)
	}
}

func TestErrorString(t *testing.T) {
	err := withBody(404, `{"message":"no such wallet"}`)
	assert.Equal(t, "POST /api/x: status 404: no such wallet", err.Error())
	assert.Contains(t, (&Error{Method: "GET", Path: "/p", Err: errors.New("eof")}).Error(), "eof")
}
