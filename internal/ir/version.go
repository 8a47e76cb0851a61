package ir

import (
	"github.com/Masterminds/semver/v3"

	"github.com/roach88/idlbind/internal/errors"
)

// Version constants for the tree document schema and the tool.
const (
	// IRVersion is the document schema version written by this tool.
	IRVersion = "1.0.0"

	// IRVersionConstraint is the range of ir_version values the loader accepts.
	IRVersionConstraint = "^1"

	// ToolVersion is the idlbind release.
	ToolVersion = "0.1.0"
)

var currentIRVersion = semver.MustParse(IRVersion)

// CheckVersion validates a document's ir_version against IRVersionConstraint.
// An empty version is treated as IRVersion.
func CheckVersion(v string) error {
	if v == "" {
		return nil
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return errors.WithHint(
			errors.Wrapf(errors.ErrUnsupportedVersion, "ir_version %q is not a semantic version", v),
			"use a version like \"1\" or \"1.0.0\"",
		)
	}
	c, err := semver.NewConstraint(IRVersionConstraint)
	if err != nil {
		return errors.Wrap(err, "parsing ir_version constraint")
	}
	if !c.Check(parsed) {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrUnsupportedVersion, "ir_version %s", parsed),
			"this build reads ir_version %s (current %s)", IRVersionConstraint, currentIRVersion,
		)
	}
	return nil
}
