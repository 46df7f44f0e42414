package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/entangle/internal/syntax"
)

func hasCode(errs []ValidationError, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateDataTypeValid(t *testing.T) {
	dt := &syntax.DataType{
		Name:   "Counter",
		Fields: []syntax.Field{{Name: "count", Type: syntax.NewPath("i64")}},
	}
	assert.Empty(t, Validate(dt))
}

func TestValidateDataTypeMissingName(t *testing.T) {
	errs := Validate(&syntax.DataType{Span: syntax.Span{Line: 4}})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingName, errs[0].Code)
	assert.Equal(t, 4, errs[0].Line)
}

func TestValidateDataTypeDuplicateField(t *testing.T) {
	dt := &syntax.DataType{
		Name: "Counter",
		Fields: []syntax.Field{
			{Name: "count", Type: syntax.NewPath("i64")},
			{Name: "count", Type: syntax.NewPath("u64")},
		},
	}
	errs := Validate(dt)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateField, errs[0].Code)
	assert.Equal(t, "fields[1].name", errs[0].Field)
}

func TestValidateDataTypeTupleFieldsUnnamed(t *testing.T) {
	dt := &syntax.DataType{
		Name:   "Pair",
		Style:  syntax.StyleTuple,
		Fields: []syntax.Field{{Type: syntax.NewPath("i32")}, {Type: syntax.NewPath("i32")}},
	}
	assert.Empty(t, Validate(dt))
}

func TestValidateDataTypeDuplicateGeneric(t *testing.T) {
	dt := &syntax.DataType{
		Name: "Cache",
		Generics: syntax.Generics{Params: []syntax.GenericParam{
			{Kind: syntax.ParamType, Name: "T"},
			{Kind: syntax.ParamType, Name: "T"},
		}},
	}
	assert.True(t, hasCode(Validate(dt), ErrInvalidDeclaration))
}

func TestValidateHandlerImplDuplicateItems(t *testing.T) {
	block := &syntax.HandlerImplBlock{
		SelfType: syntax.NewPath("Counter"),
		Items: []syntax.ImplItem{
			&syntax.MethodItem{Name: "get", Receiver: syntax.ReceiverRef},
			&syntax.ConstItem{Name: "get", Type: syntax.NewPath("i64"), Value: "1"},
			&syntax.TypeItem{Name: "get", Type: syntax.NewPath("i64")},
		},
	}
	errs := Validate(block)
	require.Len(t, errs, 1, "types and values live in separate namespaces")
	assert.Equal(t, ErrDuplicateItem, errs[0].Code)
	assert.Equal(t, "items[1].name", errs[0].Field)
}

func TestValidateHandlerImplAccessorCollision(t *testing.T) {
	block := &syntax.HandlerImplBlock{
		SelfType: syntax.NewPath("Counter"),
		Items:    []syntax.ImplItem{&syntax.MethodItem{Name: "address", Receiver: syntax.ReceiverRef}},
	}
	errs := Validate(block)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateItem, errs[0].Code)
	assert.Contains(t, errs[0].Message, "accessor")

	// Interface impls do not land on the Handle.
	iface := &syntax.InterfaceImplBlock{
		Trait:    syntax.NewPath("Actor"),
		SelfType: syntax.NewPath("Counter"),
		Items:    []syntax.ImplItem{&syntax.MethodItem{Name: "address", Receiver: syntax.ReceiverRef}},
	}
	assert.Empty(t, Validate(iface))
}

func TestValidateImplMissingSelf(t *testing.T) {
	errs := Validate(&syntax.HandlerImplBlock{})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMissingSelf, errs[0].Code)
}

func TestValidateNonPathTargetIsNotAValidationError(t *testing.T) {
	block := &syntax.HandlerImplBlock{SelfType: &syntax.TupleType{}}
	assert.Empty(t, Validate(block))
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "fields[0].name", Message: "duplicate", Code: ErrDuplicateField, Line: 3}
	assert.Equal(t, "[E106] line 3: fields[0].name: duplicate", e.Error())
	e.Line = 0
	assert.Equal(t, "[E106] fields[0].name: duplicate", e.Error())
}
