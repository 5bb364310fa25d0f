package text_api

import "context"

// TextService turns an instruction into free-form generated text.
type TextService interface {
	Complete(ctx context.Context, instruction string) (string, error)
	Name() string
}
