// Package common holds small name helpers shared by the configuration
// graph and the builder.
package common

import "strings"

// UnknownStr is the name printed for enum values outside their known range.
const UnknownStr = "unknown"

// ShortName returns the part of a qualified name after the last dot.
func ShortName(name string) string {
	return name[strings.LastIndexByte(name, '.')+1:]
}

// PackageOf returns the part of a qualified name before the last dot, or ""
// for an unqualified name.
func PackageOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}

	return ""
}
