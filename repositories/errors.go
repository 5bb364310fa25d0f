package repositories

import "fmt"

// NotFoundError reports a lookup that matched no row. Any NotFoundError
// matches another through errors.Is, whatever the entity.
type NotFoundError struct {
	Entity string
	Key    any
}

func NewNotFoundError(entity string, key any) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}

	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}
