package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/entangle/internal/syntax"
)

func TestCheckRequires(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		ok         bool
	}{
		{"", "0.3.0", true},
		{">= 0.2", "0.3.0", true},
		{"^0.3", "0.3.4", true},
		{">= 0.2, < 0.3", "0.3.0", false},
		{"~1.0", "0.3.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := CheckRequires(tt.constraint, tt.version)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCheckRequiresInvalid(t *testing.T) {
	assert.Error(t, CheckRequires("not a constraint", "0.3.0"))
	assert.Error(t, CheckRequires(">= 0.1", "banana"))
}

func TestCheckToolRequires(t *testing.T) {
	assert.NoError(t, CheckToolRequires("= "+syntax.ToolVersion))
}
