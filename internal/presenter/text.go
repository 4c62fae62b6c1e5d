package presenter

import (
	"fmt"
	"strings"

	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/selection"
)

// Renderer turns states into text.
type Renderer struct {
	Styles Styles
}

// NewRenderer returns a renderer with the default styles.
func NewRenderer() *Renderer {
	return &Renderer{Styles: DefaultStyles()}
}

// State renders one reveal state.
func (r *Renderer) State(st reveal.State) string {
	var b strings.Builder

	switch st.Phase {
	case reveal.PhaseIdle:
		if st.Err != nil {
			b.WriteString(r.Styles.Error.Render(idleMessage(st.Err)))
		} else {
			b.WriteString(r.Styles.Muted.Render("Ready to spin."))
		}

	case reveal.PhaseLoading:
		fmt.Fprintf(&b, "Finding movies%s...", tagSuffix(st.Tags))

	case reveal.PhaseReady:
		fmt.Fprintf(&b, "%d movies on the wheel.\n", st.Candidates.Len())
		b.WriteString(r.Wheel(st.Candidates, st.Rotation))

	case reveal.PhaseAnimating:
		b.WriteString("Spinning...\n")
		b.WriteString(r.Wheel(st.Candidates, st.Rotation))

	case reveal.PhaseSettled:
		if st.Outcome != nil {
			b.WriteString(r.Card(st.Outcome.Winner))
		}
	}

	return b.String()
}

// Wheel lists segment labels, marking the one under the pointer at rotation.
func (r *Renderer) Wheel(set ir.CandidateSet, rotation float64) string {
	if set.Len() == 0 {
		return ""
	}
	under := selection.SegmentAt(selection.PointerAngle(rotation), set.Len())

	var b strings.Builder
	for i, label := range Labels(set) {
		if i == under {
			b.WriteString(r.Styles.Pointer.Render("▶ " + label))
		} else {
			b.WriteString(r.Styles.Segment.Render("  " + label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Card renders a winner as a bordered movie card.
func (r *Renderer) Card(c ir.Candidate) string {
	var lines []string

	title := c.Title
	if c.Payload.Year > 0 {
		title = fmt.Sprintf("%s (%d)", c.Title, c.Payload.Year)
	}
	lines = append(lines, r.Styles.Title.Render(title))

	band := RatingBand(c.Payload.Rating)
	rating := fmt.Sprintf("⭐ %s/10", FormatRating(c.Payload.Rating))
	lines = append(lines, r.Styles.Bands[band].Render(rating))

	if tags := append(append([]string(nil), c.Payload.Genres...), c.Payload.Moods...); len(tags) > 0 {
		lines = append(lines, r.Styles.Muted.Render(strings.Join(tags, " · ")))
	}
	if c.Payload.Description != "" {
		lines = append(lines, "", c.Payload.Description)
	}
	if c.Payload.TrailerURL != "" {
		lines = append(lines, "", r.Styles.Muted.Render("Trailer: "+c.Payload.TrailerURL))
	}

	return r.Styles.Card.Render(strings.Join(lines, "\n"))
}

func idleMessage(err error) string {
	switch {
	case reveal.IsNoCandidates(err):
		return "No movies match those filters. Try different tags."
	case reveal.IsFetchError(err):
		return "Could not load movies. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " for " + strings.Join(tags, ", ")
}
