package contract

import "errors"

var (
	ErrConfiguration   = errors.New("invalid agent configuration")
	ErrModality        = errors.New("module received the wrong act modality")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)
