// Package config holds the compiled configuration graph produced by the
// builder: type aliases, type handlers, effective settings, the selected
// environment, interceptors, result maps, caches and mapped statements.
//
// # Lifecycle
//
// A Configuration is written only while it is being compiled. Freeze ends
// that phase; afterwards every mutator returns ErrFrozen and the graph can be
// read from any number of goroutines without locking.
//
// # Ownership
//
// Accessors return the stored pointers for statements, result maps and
// caches. Callers must treat them as read-only; maps and slices handed out by
// accessors are copies.
package config
