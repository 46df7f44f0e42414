package testutil

// FixedSessionGenerator generates the same session id every time.
//
// Scenarios that record into a store use it so their session rows are
// byte-identical across runs. Unlike session.FixedGenerator, which returns
// ids in sequence, this generator never runs out.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a new fixed session id generator.
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements session.IDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
