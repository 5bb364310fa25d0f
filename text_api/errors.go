package text_api

import "fmt"

// StatusError is returned when the text service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func NewStatusError(statusCode int, body string) *StatusError {
	return &StatusError{StatusCode: statusCode, Body: body}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("text service returned status %d", e.StatusCode)
}

func (e *StatusError) Is(err error) bool {
	_, ok := err.(*StatusError)
	return ok
}
