package apiclient

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// DefaultErrorMessage is used when a failed response carries no message.
const DefaultErrorMessage = "an error occurred"

// RequestError is returned for any non-2xx response.
type RequestError struct {
	StatusCode int
	Message    string
	// Code is the envelope's error field, when the server sent one.
	Code string
}

func (e *RequestError) Error() string {
	return e.Message
}

func newRequestError(status int, body []byte) *RequestError {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &env)

	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = DefaultErrorMessage
	}
	return &RequestError{
		StatusCode: status,
		Message:    msg,
		Code:       env.Error,
	}
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}
