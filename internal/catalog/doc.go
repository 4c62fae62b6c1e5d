// Package catalog provides candidate providers for the reveal controller.
//
// Local serves candidates from an in-process movie catalog loaded from a
// YAML or CUE file and validated against an embedded CUE schema. Client
// fetches candidates from a running spinpick HTTP service.
//
// Both filter by tag: a movie matches when any requested tag equals one of
// its genres or moods, compared case-insensitively. No tags means the whole
// catalog. A uniform random sample of at most the desired count is returned.
package catalog
