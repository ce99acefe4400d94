package diagnostic

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"sqlmap-builder/internal/common"
)

// Diagnostics holds all diagnostic information collected during a build.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Resource identifies the document this relates to (if any).
	Resource string
	// Element identifies the element or id inside the resource (if any).
	Element string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
	// Cause is the error behind an error diagnostic.
	Cause error
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError records err as an error diagnostic.
func (d *Diagnostics) AddError(code string, err error, resource, element string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  err.Error(),
		Resource: resource,
		Element:  element,
		Cause:    err,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, resource, element string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Resource: resource,
		Element:  element,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, resource, element string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: DiagnosticInfo,
		Code:     code,
		Message:  message,
		Resource: resource,
		Element:  element,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsEmpty returns true if nothing has been recorded.
func (d *Diagnostics) IsEmpty() bool {
	return len(d.Errors) == 0 && len(d.Warnings) == 0 && len(d.Infos) == 0
}

// Reset drops every recorded diagnostic.
func (d *Diagnostics) Reset() {
	d.Errors = nil
	d.Warnings = nil
	d.Infos = nil
}

// Error combines every error diagnostic into one error, or returns nil.
// The combined error matches each diagnostic's Cause under errors.Is.
func (d *Diagnostics) Error() error {
	if !d.HasErrors() {
		return nil
	}

	var result *multierror.Error
	for _, e := range d.Errors {
		result = multierror.Append(result, diagnosticError{e})
	}

	result.ErrorFormat = func(errs []error) string {
		parts := make([]string, 0, len(errs))
		for _, err := range errs {
			parts = append(parts, err.Error())
		}

		return strings.Join(parts, "; ")
	}

	return result.ErrorOrNil()
}

type diagnosticError struct {
	d Diagnostic
}

func (e diagnosticError) Error() string { return e.d.String() }

func (e diagnosticError) Unwrap() error { return e.d.Cause }

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Resource != "" {
		prefix = append(prefix, "["+d.Resource+"]")
	}

	if d.Element != "" {
		prefix = append(prefix, d.Element)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(quoteAll(d.Suggestions), " or ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}

	return out
}
