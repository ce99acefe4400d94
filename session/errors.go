package session

import (
	"strings"

	"sqlmap-builder/internal/diagnostic"
)

// BuildError reports a failed build. It wraps the cause, so errors.Is
// matches the sentinel errors of package config and this package.
type BuildError struct {
	BuildID string
	// Trail is the location the compiler had reached, outermost first.
	Trail []string
	// Diagnostics collected before the failure.
	Diagnostics diagnostic.Diagnostics
	Err         error
}

func (e *BuildError) Error() string {
	var sb strings.Builder

	sb.WriteString("error building SqlSession")

	if len(e.Trail) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(e.Trail, "; "))
		sb.WriteString(")")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
