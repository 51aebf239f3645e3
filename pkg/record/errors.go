package record

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every *MalformedInputError.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError reports records that cannot form a collection.
// Row is the zero-based record index, or -1 when the whole input is at fault.
type MalformedInputError struct {
	Row    int
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Row < 0:
		return fmt.Sprintf("malformed input: %s", e.Reason)
	case e.Field == "":
		return fmt.Sprintf("malformed input: record %d: %s", e.Row, e.Reason)
	default:
		return fmt.Sprintf("malformed input: record %d field %q: %s", e.Row, e.Field, e.Reason)
	}
}

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }
