package store

import "errors"

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// Expansion statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Diagnostic severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Session is the persisted impl counter of one session.
type Session struct {
	ID          string
	StartImpl   int64
	NextImpl    int64
	ToolVersion string
}

// Run is one expansion pass. StartImpl is the counter value before the first
// construct and EndImpl the value after the last one.
type Run struct {
	SessionID string
	Run       int64
	StartImpl int64
	EndImpl   int64
	Policy    string
}

// Expansion is the recorded outcome of expanding one construct.
type Expansion struct {
	SessionID  string
	Run        int64
	Seq        int64
	Construct  string
	Kind       string
	Namespace  string
	Status     string
	OutputHash string
	Source     string
}

// Diagnostic is a warning or error attached to an expansion.
// Ordinal is the position of the diagnostic within its expansion.
type Diagnostic struct {
	SessionID string
	Run       int64
	Seq       int64
	Ordinal   int
	Severity  string
	Code      string
	Message   string
	File      string
	Line      int
	Col       int
}

// RunRecord bundles a run with its expansions and diagnostics.
type RunRecord struct {
	Run         Run
	Expansions  []Expansion
	Diagnostics []Diagnostic
}
