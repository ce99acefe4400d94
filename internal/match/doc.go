// Package match provides name normalization, edit distance and
// "did you mean" suggestions for names that failed to resolve.
//
// Key functions:
//   - NormalizeIdent: folds case and strips separators ("cache_enabled" == "cacheEnabled")
//   - EditDistance: counts edits, adjacent swaps included, between two strings
//   - Suggest: ranks known names by similarity to an unknown one
package match
