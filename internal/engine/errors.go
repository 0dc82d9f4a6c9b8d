package engine

import "fmt"

// MissingColumnError reports a required field absent from an input table.
// It is the only fatal condition in the pipeline: a run never emits partial
// output when one of its tables cannot be read completely.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %q is missing required column %q", e.Table, e.Column)
}

// NewMissingColumnError builds a MissingColumnError for the given table and
// column.
func NewMissingColumnError(table, column string) error {
	return &MissingColumnError{Table: table, Column: column}
}
