package compiler

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/roach88/entangle/internal/syntax"
)

// CheckRequires reports whether toolVersion satisfies a declaration file's
// `requires` constraint, e.g. ">= 0.2, < 1.0". An empty constraint always
// passes.
func CheckRequires(constraint, toolVersion string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(toolVersion)
	if err != nil {
		return fmt.Errorf("invalid tool version %q: %w", toolVersion, err)
	}
	if ok, reasons := c.Validate(v); !ok {
		msg := fmt.Sprintf("entangle %s does not satisfy requires %q", toolVersion, constraint)
		if len(reasons) > 0 {
			msg += ": " + reasons[0].Error()
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// CheckToolRequires checks a constraint against the running tool version.
func CheckToolRequires(constraint string) error {
	return CheckRequires(constraint, syntax.ToolVersion)
}
