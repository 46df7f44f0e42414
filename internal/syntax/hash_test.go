package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputHashDeterminism(t *testing.T) {
	src := "pub struct Counter {\n    addr: Address,\n}\n"

	h1 := OutputHash(src)
	h2 := OutputHash(src)

	assert.Equal(t, h1, h2, "OutputHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, h1, OutputHash(src+"\n"))
}

func TestOutputHashNFC(t *testing.T) {
	composed := "struct Caf\u00e9;"
	decomposed := "struct Cafe\u0301;"

	assert.Equal(t, OutputHash(composed), OutputHash(decomposed),
		"canonically equivalent spellings must hash identically")
}
