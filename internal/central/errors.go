package central

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound is wrapped by errors for objects Central does not know.
var ErrNotFound = errors.New("central: not found")

// Error is a failed Central request. Message is fit for display.
type Error struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Operation == "" {
		return "central: " + e.Message
	}
	return fmt.Sprintf("central: %s: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) UserMessage() string {
	if e == nil {
		return ""
	}
	return e.Message
}

type graphQLError struct {
	Message string `json:"message"`
}

// messageFromBody extracts a message from a non-2xx response body. It
// accepts GraphQL error lists and plain {"message"} or {"error"} objects.
func messageFromBody(statusCode int, body []byte) string {
	var payload struct {
		Errors  []graphQLError `json:"errors"`
		Message string         `json:"message"`
		Error   string         `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := firstGraphQLMessage(payload.Errors); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed with status code %d", statusCode)
}

func firstGraphQLMessage(errs []graphQLError) string {
	for _, e := range errs {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			return msg
		}
	}
	return ""
}
