package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for any 401. By the time a caller sees it the
// session token has already been cleared.
var ErrUnauthorized = errors.New("session expired, please log in again")

// RequestError is the normalized transport failure: network errors carry
// Status 0, HTTP failures carry the response status.
type RequestError struct {
	Message string
	Status  int
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// BusinessError is a success:false envelope turned into an error by callers
// that choose to treat it as one.
type BusinessError struct {
	Message string
	Status  int
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return "request was rejected by the server"
	}
	return e.Message
}

// UserMessage returns the text suitable for a user notification.
func UserMessage(err error) string {
	var business *BusinessError
	if errors.As(err, &business) {
		return business.Error()
	}
	if errors.Is(err, ErrUnauthorized) {
		return ErrUnauthorized.Error()
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Status == 0 {
			return "Unable to reach the server. Please check your connection and try again."
		}
		if reqErr.Message != "" {
			return reqErr.Message
		}
	}
	return "Something went wrong. Please try again."
}
