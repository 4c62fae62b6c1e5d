// Package httpapi serves the catalog and the reveal controller over HTTP.
//
// The catalog endpoints (/api/movies, /api/tags) use the same layout that
// catalog.Client consumes, so one spinpick server can act as the candidate
// provider of another.
package httpapi
