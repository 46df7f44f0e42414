package syntax

import "fmt"

// Span locates a construct in its declaration file.
// The zero Span is "unknown position".
type Span struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// IsValid reports whether the span carries a position.
func (s Span) IsValid() bool {
	return s.Line > 0
}

func (s Span) String() string {
	if !s.IsValid() {
		return "-"
	}
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}
