package contract

import "errors"

var (
	ErrModelInvoke          = errors.New("model invoke failed")
	ErrSchemaViolation      = errors.New("model response violates schema")
	ErrValidation           = errors.New("validation failed")
	ErrUnknownTool          = errors.New("tool is not registered")
	ErrArgumentConstruction = errors.New("required data missing from trace")
)
