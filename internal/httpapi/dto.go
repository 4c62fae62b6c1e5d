package httpapi

import (
	"errors"
	"time"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/presenter"
	"github.com/roach88/spinpick/internal/reveal"
	"github.com/roach88/spinpick/internal/selection"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RevealRequest is the body of POST /api/reveal.
type RevealRequest struct {
	Tags []string `json:"tags"`
}

// StateResponse is the JSON view of a reveal.State.
type StateResponse struct {
	Phase      reveal.Phase     `json:"phase"`
	Version    int64            `json:"version"`
	Generation int64            `json:"generation"`
	Tags       []string         `json:"tags"`
	Movies     []catalog.Movie  `json:"movies"`
	Labels     []string         `json:"labels"`
	Plan       *selection.Plan  `json:"plan,omitempty"`
	Rotation   float64          `json:"rotation"`
	Outcome    *OutcomeResponse `json:"outcome,omitempty"`
	Error      *ErrorDetail     `json:"error,omitempty"`
}

type OutcomeResponse struct {
	ID        string        `json:"id"`
	Winner    catalog.Movie `json:"winner"`
	Rotation  float64       `json:"rotation"`
	Timestamp time.Time     `json:"timestamp"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toStateResponse(st reveal.State) StateResponse {
	resp := StateResponse{
		Phase:      st.Phase,
		Version:    st.Version,
		Generation: st.Generation,
		Tags:       st.Tags,
		Movies:     catalog.Movies(st.Candidates),
		Labels:     presenter.Labels(st.Candidates),
		Plan:       st.Plan,
		Rotation:   st.Rotation,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if st.Outcome != nil {
		resp.Outcome = &OutcomeResponse{
			ID:        st.Outcome.ID,
			Winner:    catalog.MovieFromCandidate(st.Outcome.Winner),
			Rotation:  st.Outcome.Rotation,
			Timestamp: st.Outcome.Timestamp,
		}
	}
	if st.Err != nil {
		detail := &ErrorDetail{Code: "INTERNAL", Message: st.Err.Error()}
		var re *reveal.RevealError
		if errors.As(st.Err, &re) {
			detail.Code = string(re.Code)
			detail.Message = re.Message
		}
		resp.Error = detail
	}
	return resp
}
