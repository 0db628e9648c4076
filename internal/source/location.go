// Package source holds source-position values shared across every compiler stage.
package source

import "fmt"

// Location identifies a (file, line, column) triple. A "placeholder"
// location compares equal to any other location, which lets tests assert
// AST/IR shape without hand-writing coordinates.
type Location struct {
	File        string
	Line        int
	Column      int
	Placeholder bool
}

// Dummy returns a placeholder location, equal to any other Location.
func Dummy() Location {
	return Location{Placeholder: true}
}

// Equal reports whether two locations refer to the same source position.
// A placeholder location is equal to everything.
func (l Location) Equal(other Location) bool {
	if l.Placeholder || other.Placeholder {
		return true
	}
	return l.File == other.File && l.Line == other.Line && l.Column == other.Column
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}
