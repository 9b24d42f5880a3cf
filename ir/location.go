package ir

import (
	"errors"
	"fmt"
)

// ErrNonPositive is returned when a LineNumber or ColumnNumber is
// constructed from a value less than 1.
var ErrNonPositive = errors.New("value must be positive (1-based)")

// LineNumber is a positive, 1-based line number. Zero is invalid.
type LineNumber uint32

// NewLineNumber validates and constructs a LineNumber.
func NewLineNumber(v uint32) (LineNumber, error) {
	if v == 0 {
		return 0, fmt.Errorf("line number: %w", ErrNonPositive)
	}
	return LineNumber(v), nil
}

// Get returns the underlying value.
func (l LineNumber) Get() uint32 { return uint32(l) }

// ColumnNumber is a positive, 1-based column number. Zero is invalid.
type ColumnNumber uint32

// NewColumnNumber validates and constructs a ColumnNumber.
func NewColumnNumber(v uint32) (ColumnNumber, error) {
	if v == 0 {
		return 0, fmt.Errorf("column number: %w", ErrNonPositive)
	}
	return ColumnNumber(v), nil
}

// Get returns the underlying value.
func (c ColumnNumber) Get() uint32 { return uint32(c) }

// ErrInvalidRange is returned when a SourceLocation's start line exceeds
// its end line.
var ErrInvalidRange = errors.New("start_line must be <= end_line")

// SourceLocation pinpoints where a fact was observed.
type SourceLocation struct {
	File        ProjectPath
	StartLine   LineNumber
	EndLine     LineNumber
	StartColumn *ColumnNumber
	EndColumn   *ColumnNumber
}

// NewSourceLocation validates and constructs a SourceLocation. The
// invariant start_line <= end_line is enforced here so that no
// SourceLocation value in the system can violate it.
func NewSourceLocation(file ProjectPath, startLine, endLine LineNumber, startCol, endCol *ColumnNumber) (SourceLocation, error) {
	if startLine > endLine {
		return SourceLocation{}, fmt.Errorf("%w: start=%d end=%d", ErrInvalidRange, startLine, endLine)
	}
	return SourceLocation{
		File:        file,
		StartLine:   startLine,
		EndLine:     endLine,
		StartColumn: startCol,
		EndColumn:   endCol,
	}, nil
}

// String renders a human-readable "file:line:col" form for logs and error
// messages.
func (s SourceLocation) String() string {
	if s.StartColumn != nil {
		return fmt.Sprintf("%s:%d:%d", s.File.String(), s.StartLine, *s.StartColumn)
	}
	return fmt.Sprintf("%s:%d", s.File.String(), s.StartLine)
}
