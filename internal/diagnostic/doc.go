// Package diagnostic provides the per-build diagnostic context and the
// warning accumulator used while compiling a configuration.
//
// Key capabilities:
//   - Location trail (resource, activity, object) attached to build failures
//   - Nested frames for mapper documents loaded from a configuration document
//   - Warnings and infos that do not abort a build (e.g. skipped statements)
//   - Name suggestions for unknown settings, aliases and environments
//
// A Context is an explicit value threaded through one build call. It is not
// safe for concurrent use and must not be shared between builds.
package diagnostic
