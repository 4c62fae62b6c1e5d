// Package presenter renders reveal states for people: wheel labels, the
// movie card, share payloads, a plain text view and an interactive
// terminal UI.
package presenter
