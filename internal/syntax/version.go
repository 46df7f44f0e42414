package syntax

// Version constants for the structural model and the tool.
const (
	// ModelVersion is the structural model version.
	ModelVersion = "1"

	// ToolVersion is the entangle tool version. Declaration files may
	// constrain it with a `requires` semver constraint.
	ToolVersion = "0.3.0"
)
