package engine

import (
	"errors"
	"fmt"
)

// ErrQuery is matched by every *QueryError.
var ErrQuery = errors.New("engine: invalid query")

// QueryError reports a query string the engine cannot parse.
type QueryError struct {
	Query  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("engine: invalid query %q: %s", e.Query, e.Reason)
}

func (e *QueryError) Is(target error) bool { return target == ErrQuery }
