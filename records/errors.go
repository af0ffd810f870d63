package records

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPositionOutOfRange is returned when a position does not address a
	// record in the list.
	ErrPositionOutOfRange = errors.New("records: position out of range")
	// ErrNoEditor is returned by editor operations when no session is open.
	ErrNoEditor = errors.New("records: no editor session open")
	// ErrUnknownField is returned when a draft field is not declared by the
	// list's schema.
	ErrUnknownField = errors.New("records: unknown field")
	// ErrInvalidValue is returned when a draft value is not a string,
	// number or bool.
	ErrInvalidValue = errors.New("records: value must be text, a number or true/false")
	// ErrUnknownCommand is returned for bulk command names or values outside
	// the supported set.
	ErrUnknownCommand = errors.New("records: unknown bulk command")
)

// ValidationError carries one message per field that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = e.Fields[name]
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// PersistenceError reports a failed write of the slot. The in-memory list
// keeps the change; Flush retries the write.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s (%s): %v", e.Key, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// LoadError reports a slot whose contents could not be decoded. Loading
// treats it as an empty list.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("decode slot %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
