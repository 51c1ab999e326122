package p2n

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Error codes for specific failure types
const (
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeRegistryConflict = "REGISTRY_CONFLICT"
	ErrCodePlanField        = "PLAN_FIELD_ERROR"
	ErrCodeMaterialization  = "MATERIALIZATION_FAILED"
	ErrCodePlanGeneration   = "PLAN_GENERATION_ERROR"
	ErrCodeSanitize         = "PLAN_SANITIZE_ERROR"
	ErrCodeCache            = "CACHE_ERROR"
	ErrCodeStore            = "STORE_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// Error is the single error type the core surfaces at its boundaries.
type Error struct {
	Code    string // A machine-readable error code (e.g., ErrCodeMaterialization)
	Stage   string // The stage where the error occurred (e.g., "assembly", "generation")
	Message string // A human-readable message
	Cause   error  // The underlying error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Stage, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error, allowing for error chaining.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(code, stage, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}

// Specific error constructors

func NewConfigurationError(message string, cause error) *Error {
	return NewError(ErrCodeConfiguration, "initialization", message, cause)
}

func NewRegistryConflictError(kind, key string) *Error {
	return NewError(ErrCodeRegistryConflict, "registry-construction",
		fmt.Sprintf("%s registry claims %q more than once", kind, key), nil)
}

// NewPlanFieldError reports a required plan field that is absent or out of range.
func NewPlanFieldError(field, message string, cause error) *Error {
	return NewError(ErrCodePlanField, "generation", fmt.Sprintf("plan field %q: %s", field, message), cause)
}

// NewMaterializationError wraps any lower-level failure into the single error
// kind Materialize is allowed to return. Re-wrapping an *Error keeps the
// originating stage and message visible through the reason string.
func NewMaterializationError(stage string, cause error) *Error {
	msg := "plan materialization failed"
	var inner *Error
	if errors.As(cause, &inner) {
		msg = fmt.Sprintf("plan materialization failed: %s", inner.Message)
	} else if cause != nil {
		msg = fmt.Sprintf("plan materialization failed: %v", cause)
	}
	return NewError(ErrCodeMaterialization, stage, msg, cause)
}

func NewPlanGenerationError(cause error) *Error {
	return NewError(ErrCodePlanGeneration, "planning", "failed to generate plan document", cause)
}

func NewSanitizeError(message string, cause error) *Error {
	return NewError(ErrCodeSanitize, "sanitize", message, cause)
}

func NewInternalError(stage, message string, cause error) *Error {
	return NewError(ErrCodeInternal, stage, message, cause)
}

// IsMaterializationError reports whether err is the core's materialization failure kind.
func IsMaterializationError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeMaterialization
}

// hashHex is the content-hash primitive shared by the plan digest and the
// environment hash: sha256, hex encoded.
func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashHex exposes the canonical content hash for collaborating packages.
func HashHex(data []byte) string { return hashHex(data) }
