// Package testutil provides deterministic fixtures shared by package tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/entangle/internal/syntax"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CounterType is `pub struct Counter { count: i64 }`.
func CounterType() *syntax.DataType {
	return &syntax.DataType{
		Vis:   syntax.Public(),
		Name:  "Counter",
		Style: syntax.StyleNamed,
		Fields: []syntax.Field{
			{Name: "count", Type: syntax.NewPath("i64")},
		},
		Span: syntax.Span{File: "counter.cue", Line: 1, Column: 1},
	}
}

// CounterHandlers is an inherent block on Counter with one forwarded method:
//
//	pub fn increment(&mut self, by: i64) { self.count += by; }
func CounterHandlers() *syntax.HandlerImplBlock {
	return &syntax.HandlerImplBlock{
		SelfType: syntax.NewPath("Counter"),
		Items: []syntax.ImplItem{
			&syntax.MethodItem{
				Vis:      syntax.Public(),
				Name:     "increment",
				Receiver: syntax.ReceiverMutRef,
				Params:   []syntax.Param{{Name: "by", Type: syntax.NewPath("i64")}},
				Body:     &syntax.RawBody{Text: "self.count += by;"},
			},
		},
		Span: syntax.Span{File: "counter.cue", Line: 8, Column: 1},
	}
}

// CounterPair is an inherent block whose only method returns a tuple, which
// the handle cannot carry back through a message.
func CounterPair() *syntax.HandlerImplBlock {
	return &syntax.HandlerImplBlock{
		SelfType: syntax.NewPath("Counter"),
		Items: []syntax.ImplItem{
			&syntax.MethodItem{
				Vis:      syntax.Public(),
				Name:     "pair",
				Receiver: syntax.ReceiverRef,
				Return:   &syntax.TupleType{Elems: []syntax.Type{syntax.NewPath("i64"), syntax.NewPath("i64")}},
				Body:     &syntax.RawBody{Text: "(self.count, self.count)"},
				Span:     syntax.Span{File: "counter.cue", Line: 21, Column: 3},
			},
		},
		Span: syntax.Span{File: "counter.cue", Line: 20, Column: 1},
	}
}

// CounterConstructs is a data type followed by two handler blocks, the
// shape of a typical declaration file.
func CounterConstructs() []syntax.SourceConstruct {
	return []syntax.SourceConstruct{
		CounterType(),
		CounterHandlers(),
		CounterHandlers(),
	}
}
