package scheme

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFieldExcluded is returned by extraction when a field is screened out
// by the given criteria.
var ErrFieldExcluded = errors.New("field excluded")

// ErrUndefinedField is returned when a value is processed against an
// Undefined placeholder that has not been defined yet.
var ErrUndefinedField = errors.New("undefined field")

// ErrInvalidDefinition is returned when a field is misconfigured, for
// example a polymorphic structure whose variant shadows its discriminator.
var ErrInvalidDefinition = errors.New("invalid field definition")

// Error is a single validation failure, identified by a stable token.
// The message is presentation only; callers branching on failures should
// dispatch on the token.
type Error struct {
	Token   string `json:"token,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationError is the error tree produced when processing a value fails.
// Errors holds the failures reported against the value itself. For
// structural fields, Structure mirrors the shape of the processed value:
// a map[string]error for structures and maps, or a []error with nil holes
// for sequences and tuples, with child trees at the failing positions.
type ValidationError struct {
	Errors    []*Error
	Structure any
}

func (e *ValidationError) Error() string {
	messages := e.collectMessages(nil)
	switch len(messages) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + messages[0]
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(messages))
	for i, m := range messages {
		msg += fmt.Sprintf("  %d. %s\n", i+1, m)
	}
	return msg
}

func (e *ValidationError) collectMessages(messages []string) []string {
	for _, err := range e.Errors {
		if err.Message != "" {
			messages = append(messages, err.Message)
		} else {
			messages = append(messages, err.Token)
		}
	}
	switch structure := e.Structure.(type) {
	case map[string]error:
		for _, child := range structure {
			if node, ok := AsValidationError(child); ok {
				messages = node.collectMessages(messages)
			}
		}
	case []error:
		for _, child := range structure {
			if node, ok := AsValidationError(child); ok {
				messages = node.collectMessages(messages)
			}
		}
	}
	return messages
}

// Append adds a failure to this error and returns it.
func (e *ValidationError) Append(err *Error) *ValidationError {
	e.Errors = append(e.Errors, err)
	return e
}

// Attach sets the structural child errors for this error and returns it.
func (e *ValidationError) Attach(structure any) *ValidationError {
	e.Structure = structure
	return e
}

// Merge folds the failures of another error into this one.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	e.Errors = append(e.Errors, other.Errors...)
	return e
}

// Substantive reports whether this error carries any failures.
func (e *ValidationError) Substantive() bool {
	return len(e.Errors) > 0 || e.Structure != nil
}

// Serialize renders this error tree as a serializable two-element pair:
// the failures at this level, then the structural children. Either element
// is nil when absent.
func (e *ValidationError) Serialize() []any {
	var errs any
	if len(e.Errors) > 0 {
		errs = serializeErrors(e.Errors)
	}
	var structure any
	if e.Structure != nil {
		structure = e.serializeStructure()
	}
	return []any{errs, structure}
}

func serializeErrors(errs []*Error) []any {
	serialized := make([]any, 0, len(errs))
	for _, err := range errs {
		entry := make(map[string]any, 3)
		if err.Token != "" {
			entry["token"] = err.Token
		}
		if err.Title != "" {
			entry["title"] = err.Title
		}
		if err.Message != "" {
			entry["message"] = err.Message
		}
		serialized = append(serialized, entry)
	}
	return serialized
}

func (e *ValidationError) serializeStructure() any {
	switch structure := e.Structure.(type) {
	case map[string]error:
		serialized := make(map[string]any, len(structure))
		for attr, child := range structure {
			if node, ok := AsValidationError(child); ok {
				if node.Structure != nil {
					serialized[attr] = node.serializeStructure()
				} else {
					serialized[attr] = serializeErrors(node.Errors)
				}
			}
		}
		return serialized
	case []error:
		serialized := make([]any, 0, len(structure))
		for _, child := range structure {
			if node, ok := AsValidationError(child); ok {
				if node.Structure != nil {
					serialized = append(serialized, node.serializeStructure())
				} else {
					serialized = append(serialized, serializeErrors(node.Errors))
				}
			} else {
				serialized = append(serialized, nil)
			}
		}
		return serialized
	}
	return nil
}

// UnserializeError rebuilds a ValidationError from the pair produced by
// Serialize.
func UnserializeError(value any) (*ValidationError, error) {
	pair, ok := value.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("scheme: malformed serialized error: %v", value)
	}

	err := &ValidationError{}
	if pair[0] != nil {
		entries, ok := pair[0].([]any)
		if !ok {
			return nil, fmt.Errorf("scheme: malformed serialized error list: %v", pair[0])
		}
		for _, entry := range entries {
			failure, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("scheme: malformed serialized error entry: %v", entry)
			}
			single := &Error{}
			if token, ok := failure["token"].(string); ok {
				single.Token = token
			}
			if title, ok := failure["title"].(string); ok {
				single.Title = title
			}
			if message, ok := failure["message"].(string); ok {
				single.Message = message
			}
			err.Errors = append(err.Errors, single)
		}
	}
	err.Structure = pair[1]
	return err, nil
}

// InvalidTypeError marks a failure caused by a value of the wrong kind for
// the field, as opposed to a value of the right kind failing a constraint.
// Union relies on the distinction to try its next member.
type InvalidTypeError struct {
	ValidationError
}

// AsValidationError extracts the error tree node from err, unwrapping an
// InvalidTypeError to its embedded node.
func AsValidationError(err error) (*ValidationError, bool) {
	var invalid *InvalidTypeError
	if errors.As(err, &invalid) {
		return &invalid.ValidationError, true
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation, true
	}
	return nil, false
}

// IsInvalidType reports whether err is an InvalidTypeError.
func IsInvalidType(err error) bool {
	var invalid *InvalidTypeError
	return errors.As(err, &invalid)
}

// errorDefinition is one entry of a field type's error table.
type errorDefinition struct {
	title    string
	template string
}

// errorTable maps error tokens to their definitions for a field type.
type errorTable map[string]errorDefinition

// withErrors derives a new table from t with the given overrides applied,
// mirroring how field types inherit and refine their error vocabulary.
func (t errorTable) with(overrides errorTable) errorTable {
	merged := make(errorTable, len(t)+len(overrides))
	for token, definition := range t {
		merged[token] = definition
	}
	for token, definition := range overrides {
		merged[token] = definition
	}
	return merged
}

var baseErrors = errorTable{
	"invalid":  {"invalid value", "%(field)s is an invalid value"},
	"nonnull":  {"null value", "%(field)s must be a non-null value"},
	"overflow": {"overflow error", "%(field)s overflowed"},
}

// fieldError builds a single-failure ValidationError for the given field,
// resolving the message template from the field's error table and any
// per-field overrides.
func fieldError(f Field, ancestry []string, token string, params map[string]any) *ValidationError {
	return (&ValidationError{}).Append(constructError(f, ancestry, token, params))
}

// invalidTypeError is fieldError for wrong-kind failures.
func invalidTypeError(f Field, ancestry []string, token string, params map[string]any) *InvalidTypeError {
	err := &InvalidTypeError{}
	err.Append(constructError(f, ancestry, token, params))
	return err
}

func constructError(f Field, ancestry []string, token string, params map[string]any) *Error {
	definition, ok := fieldErrorTable(f)[token]
	if !ok {
		definition = errorDefinition{template: "%(field)s failed validation (" + token + ")"}
	}

	template := definition.template
	if overrides := f.params().Errors; overrides != nil {
		if custom, ok := overrides[token]; ok {
			template = custom
		}
	}

	if params == nil {
		params = make(map[string]any, 1)
	}
	if _, ok := params["field"]; !ok {
		field := strings.Join(ancestry, "")
		if field == "" {
			field = guaranteedName(f)
		}
		params["field"] = field
	}

	return &Error{
		Token:   token,
		Title:   definition.title,
		Message: expand(template, params),
	}
}
