package http

import (
	"errors"

	"tracker/internal/core"
)

// validationMessage turns a rejected input into the text shown next to the
// form.
func validationMessage(ve *core.ValidationError) string {
	switch {
	case errors.Is(ve, core.ErrEmptyDescription):
		return "Please enter a description"
	case errors.Is(ve, core.ErrInvalidAmount):
		return "Please enter a valid amount"
	case errors.Is(ve, core.ErrInvalidType):
		return "Type must be income or expense"
	default:
		return "Invalid " + ve.Field
	}
}
