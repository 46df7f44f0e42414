package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibilityString(t *testing.T) {
	tests := []struct {
		vis  Visibility
		want string
	}{
		{Inherited(), ""},
		{Public(), "pub"},
		{Restricted("crate"), "pub(crate)"},
		{Restricted("self"), "pub(self)"},
		{Restricted("super"), "pub(super)"},
		{RestrictedIn("crate", "net"), "pub(in crate::net)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.vis.String())
		})
	}
}

func TestVisibilityEqual(t *testing.T) {
	assert.True(t, Restricted("super").Equal(Restricted("super")))
	assert.False(t, Restricted("super").Equal(RestrictedIn("super")))
	assert.False(t, Public().Equal(Inherited()))
	assert.True(t, RestrictedIn("crate", "a").Equal(RestrictedIn("crate", "a")))
	assert.False(t, RestrictedIn("crate", "a").Equal(RestrictedIn("crate", "b")))
}

func TestIsRestrictedTo(t *testing.T) {
	assert.True(t, Restricted("crate").IsRestrictedTo("crate"))
	assert.False(t, RestrictedIn("crate").IsRestrictedTo("crate"))
	assert.False(t, Public().IsRestrictedTo("crate"))
}

func TestGenericsRendering(t *testing.T) {
	g := Generics{
		Params: []GenericParam{
			{Kind: ParamLifetime, Name: "'a"},
			{Kind: ParamType, Name: "T", Bounds: []string{"Send", "'static"}, Default: "()"},
			{Kind: ParamConst, Name: "N", ConstType: "usize"},
		},
		Where: []string{"T: Clone"},
	}

	assert.Equal(t, "<'a, T: Send + 'static = (), const N: usize>", g.DeclString())
	assert.Equal(t, "<'a, T: Send + 'static, const N: usize>", g.ImplString())
	assert.Equal(t, " where T: Clone", g.WhereString())

	args := g.TypeArgs()
	if assert.Len(t, args, 3) {
		assert.Equal(t, "'a", args[0].String())
		assert.Equal(t, "T", args[1].String())
		assert.Equal(t, "N", args[2].String())
	}

	assert.True(t, Generics{}.IsEmpty())
	assert.Equal(t, "", Generics{}.ImplString())
	assert.Nil(t, Generics{}.TypeArgs())
}
