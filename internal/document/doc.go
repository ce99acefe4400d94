// Package document defines the format-neutral shapes the decoders produce:
// Config for configuration documents and Node trees for mapper documents.
package document
