package editor

import (
	"fmt"
	"strings"
)

// AdjacentDuplicateError rejects inserting a token directly after an
// identical one. The document is left unchanged.
type AdjacentDuplicateError struct {
	Name string
}

func (e *AdjacentDuplicateError) Error() string {
	return fmt.Sprintf("variable %s already ends at the insertion point", e.Name)
}

// IllegalCharacterError rejects a typed insert containing characters outside
// the input whitelist. The inserted span is rolled back.
type IllegalCharacterError struct {
	Inserted string
}

func (e *IllegalCharacterError) Error() string {
	return fmt.Sprintf("insert %q contains unsupported characters", e.Inserted)
}

// BlankLineLimitError rejects a newline that would create a fourth
// consecutive blank line. The newline is rolled back.
type BlankLineLimitError struct{}

func (e *BlankLineLimitError) Error() string {
	return "consecutive blank line limit reached"
}

// WordLimitError rejects an insert that pushes the body past the word
// ceiling. One character before the cursor is rolled back to compensate.
type WordLimitError struct {
	Count int
}

func (e *WordLimitError) Error() string {
	return fmt.Sprintf("word count %d exceeds the limit of %d", e.Count, MaxWords)
}

// InvalidVariableError aborts a save whose body carries placeholders outside
// the catalog. It names every offender rather than reporting a bare count.
type InvalidVariableError struct {
	Names []string
}

func (e *InvalidVariableError) Error() string {
	return "unknown variables: " + strings.Join(e.Names, ", ")
}

// TransportError wraps a network failure or a non-success backend response.
// It is surfaced as a notification only; document state is unchanged.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
