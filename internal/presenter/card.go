package presenter

import (
	"fmt"
	"strconv"

	"github.com/roach88/spinpick/internal/ir"
)

// Band classifies a rating for display.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
)

// RatingBand returns the band for a 0-10 rating.
func RatingBand(rating float64) Band {
	switch {
	case rating >= 8.5:
		return BandExcellent
	case rating >= 7.5:
		return BandGood
	case rating >= 6.5:
		return BandFair
	default:
		return BandPoor
	}
}

// FormatRating renders a rating with as few digits as needed: 8.5, 8.
func FormatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

// Share is what a user shares about a winner.
type Share struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url,omitempty"`
}

// SharePayload builds the share text for a candidate:
//
//	<title> (<year>) - ⭐ <rating>/10
//
//	<description>
//
// The year is left out when unknown, and the blank line and description
// when there is no description.
func SharePayload(c ir.Candidate) Share {
	text := c.Title
	if c.Payload.Year > 0 {
		text += fmt.Sprintf(" (%d)", c.Payload.Year)
	}
	text += fmt.Sprintf(" - ⭐ %s/10", FormatRating(c.Payload.Rating))
	if c.Payload.Description != "" {
		text += "\n\n" + c.Payload.Description
	}

	return Share{
		Title: c.Title,
		Text:  text,
		URL:   c.Payload.TrailerURL,
	}
}
