// Package errors defines the error taxonomy shared by the query pipeline.
// Every typed error matches one sentinel through errors.Is, so callers can
// branch on the kind without caring about the context fields.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for each kind of failure.
var (
	// ErrParse matches every parse failure regardless of kind.
	ErrParse = errors.New("parse error")

	// ErrEmptyQuery is returned when the query string has no terms.
	ErrEmptyQuery = errors.New("empty query")

	// ErrUnterminatedQuote is returned when a quoted term is never closed.
	ErrUnterminatedQuote = errors.New("unterminated quote")

	// ErrUnexpectedToken is returned when the parser meets a token it cannot place.
	ErrUnexpectedToken = errors.New("unexpected token")

	// ErrMissingProperty is returned when a required properties key is absent.
	ErrMissingProperty = errors.New("missing property")

	// ErrAdapterNotFound is returned when no adapter is registered for a type tag.
	ErrAdapterNotFound = errors.New("adapter not found")

	// ErrDuplicateAdapter is returned when a type tag is already registered.
	ErrDuplicateAdapter = errors.New("duplicate adapter")

	// ErrInvalidFormulaType is returned when no formula bundle knows a formula.
	ErrInvalidFormulaType = errors.New("invalid formula type")

	// ErrProcess is returned when a result processor fails to resolve a batch.
	ErrProcess = errors.New("process error")

	// ErrAdapter is the passthrough kind for adapter-internal failures.
	ErrAdapter = errors.New("adapter error")

	// ErrEntityNotFound is returned by entity stores for unknown entities.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// ParseError describes why a query string could not be parsed.
// Kind is one of ErrEmptyQuery, ErrUnterminatedQuote or ErrUnexpectedToken.
type ParseError struct {
	Kind     error
	Position int
	Token    string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s at position %d: %q", e.Kind, e.Position, e.Token)
	}
	return fmt.Sprintf("%s at position %d", e.Kind, e.Position)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse || target == e.Kind
}

// NewParseError creates a new ParseError
func NewParseError(kind error, position int, token string) *ParseError {
	return &ParseError{Kind: kind, Position: position, Token: token}
}

// MissingPropertyError reports a required properties key that was absent.
type MissingPropertyError struct {
	Key string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("missing required property '%s'", e.Key)
}

func (e *MissingPropertyError) Is(target error) bool {
	return target == ErrMissingProperty
}

// NewMissingPropertyError creates a new MissingPropertyError
func NewMissingPropertyError(key string) *MissingPropertyError {
	return &MissingPropertyError{Key: key}
}

// AdapterNotFoundError reports a type tag with no registered adapter.
type AdapterNotFoundError struct {
	Registry string
	TypeTag  string
}

func (e *AdapterNotFoundError) Error() string {
	if e.Registry != "" {
		return fmt.Sprintf("no %s adapter registered for type '%s'", e.Registry, e.TypeTag)
	}
	return fmt.Sprintf("no adapter registered for type '%s'", e.TypeTag)
}

func (e *AdapterNotFoundError) Is(target error) bool {
	return target == ErrAdapterNotFound
}

// NewAdapterNotFoundError creates a new AdapterNotFoundError
func NewAdapterNotFoundError(registry, typeTag string) *AdapterNotFoundError {
	return &AdapterNotFoundError{Registry: registry, TypeTag: typeTag}
}

// DuplicateAdapterError reports a registration for an occupied type tag.
type DuplicateAdapterError struct {
	Registry string
	TypeTag  string
}

func (e *DuplicateAdapterError) Error() string {
	if e.Registry != "" {
		return fmt.Sprintf("%s adapter already registered for type '%s'", e.Registry, e.TypeTag)
	}
	return fmt.Sprintf("adapter already registered for type '%s'", e.TypeTag)
}

func (e *DuplicateAdapterError) Is(target error) bool {
	return target == ErrDuplicateAdapter
}

// NewDuplicateAdapterError creates a new DuplicateAdapterError
func NewDuplicateAdapterError(registry, typeTag string) *DuplicateAdapterError {
	return &DuplicateAdapterError{Registry: registry, TypeTag: typeTag}
}

// InvalidFormulaTypeError reports a formula type no bundle recognizes.
type InvalidFormulaTypeError struct {
	TypeTag string
}

func (e *InvalidFormulaTypeError) Error() string {
	return fmt.Sprintf("invalid formula type '%s'", e.TypeTag)
}

func (e *InvalidFormulaTypeError) Is(target error) bool {
	return target == ErrInvalidFormulaType
}

// NewInvalidFormulaTypeError creates a new InvalidFormulaTypeError
func NewInvalidFormulaTypeError(typeTag string) *InvalidFormulaTypeError {
	return &InvalidFormulaTypeError{TypeTag: typeTag}
}

// ProcessError reports the hit that made a result-processing batch fail.
type ProcessError struct {
	DocumentID uint32
	ClassName  string
	Cause      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("failed to process document %d", e.DocumentID)
	if e.ClassName != "" {
		msg = fmt.Sprintf("failed to process %s document %d", e.ClassName, e.DocumentID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrProcess
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// NewProcessError creates a new ProcessError
func NewProcessError(documentID uint32, className string, cause error) *ProcessError {
	return &ProcessError{DocumentID: documentID, ClassName: className, Cause: cause}
}

// AdapterError wraps a failure raised inside an adapter.
type AdapterError struct {
	Adapter string
	Message string
	Cause   error
}

func (e *AdapterError) Error() string {
	msg := e.Message
	if e.Adapter != "" {
		msg = fmt.Sprintf("adapter '%s': %s", e.Adapter, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AdapterError) Is(target error) bool {
	return target == ErrAdapter
}

func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// NewAdapterError creates a new AdapterError
func NewAdapterError(adapter, message string, cause error) *AdapterError {
	return &AdapterError{Adapter: adapter, Message: message, Cause: cause}
}

// EntityNotFoundError reports an entity missing from an entity store.
type EntityNotFoundError struct {
	ClassName  string
	DocumentID uint32
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %s/%d not found", e.ClassName, e.DocumentID)
}

func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

// NewEntityNotFoundError creates a new EntityNotFoundError
func NewEntityNotFoundError(className string, documentID uint32) *EntityNotFoundError {
	return &EntityNotFoundError{ClassName: className, DocumentID: documentID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsTaxonomy reports whether err already belongs to one of the kinds above.
// Dispatchers use it to decide whether an adapter error needs wrapping.
func IsTaxonomy(err error) bool {
	for _, kind := range []error{
		ErrParse, ErrMissingProperty, ErrAdapterNotFound, ErrDuplicateAdapter,
		ErrInvalidFormulaType, ErrProcess, ErrAdapter, ErrEntityNotFound, ErrInvalidInput,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
