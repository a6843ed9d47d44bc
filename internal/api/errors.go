package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/GoBizAdmin/GoBizAdmin/internal/domain"
)

// StatusError is a non-2xx response that has no sentinel error.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("remote api: %d %s", e.StatusCode, e.Message)
}

// errorBody matches the error documents of the remote platform, which uses either key.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(code int, requestID string, body []byte) error {
	msg := strings.TrimSpace(string(body))

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		switch {
		case eb.Message != "":
			msg = eb.Message
		case eb.Error != "":
			msg = eb.Error
		}
	}

	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	default:
		return &StatusError{StatusCode: code, Message: msg, RequestID: requestID}
	}
}
