package evolution

import "fmt"

// ServiceError reports that the text service failed at the transport or status level.
type ServiceError struct {
	Err error
}

func NewServiceError(err error) *ServiceError {
	return &ServiceError{Err: err}
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("text service failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(err error) bool {
	_, ok := err.(*ServiceError)
	return ok
}

// ParseError reports that no stage list could be recovered from the reply.
type ParseError struct {
	Reason string
	Err    error
}

func NewParseError(reason string, err error) *ParseError {
	return &ParseError{Reason: reason, Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}

	return e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(err error) bool {
	_, ok := err.(*ParseError)
	return ok
}
