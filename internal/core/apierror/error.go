// Package apierror classifies failed API exchanges into user-facing messages.
package apierror

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the structured body of an error response.
type Payload struct {
	Message string
	Error   string
	Errors  []json.RawMessage
}

// Error describes a failed HTTP exchange. Status is zero when no response arrived.
type Error struct {
	Method      string
	Path        string
	Status      int
	StatusText  string
	Payload     *Payload
	RequestSent bool
	Err         error
}

func (e *Error) Error() string {
	target := strings.TrimSpace(e.Method + " " + e.Path)
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", target, e.Status, Classify(e))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", target, e.Err)
	default:
		return target + ": request failed"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasResponse reports whether the server answered at all.
func (e *Error) HasResponse() bool {
	return e.Status != 0
}

// ParsePayload extracts message, error and errors from a response body.
// It never fails: fields that are missing or of the wrong type are left empty,
// and a body that is not a JSON object yields nil.
func ParsePayload(body []byte) *Payload {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	p := &Payload{
		Message: rawString(raw["message"]),
		Error:   rawString(raw["error"]),
	}
	if errs, ok := raw["errors"]; ok {
		var list []json.RawMessage
		if json.Unmarshal(errs, &list) == nil {
			p.Errors = list
		}
	}
	if p.Message == "" && p.Error == "" && len(p.Errors) == 0 {
		return nil
	}
	return p
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
