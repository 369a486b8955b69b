package orchestrator

import (
	"fmt"

	"github.com/ternarybob/blogqa/internal/models"
)

// llmError wraps any failure from the LLM fan-out step so the queue
// executor's error-type classification sees error_type = llm without the
// orchestrator needing to know about the queue package.
type llmError struct {
	msg string
}

func (e *llmError) Error() string     { return e.msg }
func (e *llmError) ErrorType() string { return models.ErrorTypeLLM }

func llmErrorf(format string, args ...interface{}) error {
	return &llmError{msg: fmt.Sprintf(format, args...)}
}

// dbError wraps a persistence failure during the §4.5 step 5 write.
type dbError struct {
	msg string
}

func (e *dbError) Error() string     { return e.msg }
func (e *dbError) ErrorType() string { return models.ErrorTypeDB }

func dbErrorf(format string, args ...interface{}) error {
	return &dbError{msg: fmt.Sprintf(format, args...)}
}

// validationError wraps an inconsistent-input failure (defense in depth —
// normally caught earlier at the API boundary).
type validationError struct {
	msg string
}

func (e *validationError) Error() string     { return e.msg }
func (e *validationError) ErrorType() string { return models.ErrorTypeValidation }

func validationErrorf(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}
