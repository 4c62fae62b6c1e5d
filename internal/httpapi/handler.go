package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roach88/spinpick/internal/catalog"
	"github.com/roach88/spinpick/internal/ir"
	"github.com/roach88/spinpick/internal/presenter"
	"github.com/roach88/spinpick/internal/reveal"
)

const (
	defaultMovieCount = reveal.DefaultDesiredCount
	maxMovieCount     = catalog.MaxRequestCount
	maxTags           = 32
)

// Catalog is the movie source behind the catalog endpoints.
type Catalog interface {
	FetchCandidates(ctx context.Context, tags []string, desired int) (ir.CandidateSet, error)
	Tags() catalog.TagIndex
}

// Revealer is the part of reveal.Controller the reveal endpoints drive.
type Revealer interface {
	State() reveal.State
	TryReveal(ctx context.Context, tags []string) (reveal.State, bool, error)
	Abort() bool
	TryReset(ctx context.Context) (reveal.State, bool, error)
	Flush(ctx context.Context) error
}

type Handler struct {
	catalog Catalog
	ctrl    Revealer
}

func NewHandler(cat Catalog, ctrl Revealer) *Handler {
	return &Handler{catalog: cat, ctrl: ctrl}
}

func (h *Handler) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/tags", h.Tags)
	api.GET("/movies", h.Movies)

	api.POST("/reveal", h.Reveal)
	api.GET("/reveal/state", h.RevealState)
	api.POST("/reveal/abort", h.Abort)
	api.POST("/reveal/reset", h.Reset)
	api.GET("/reveal/share", h.Share)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: "spinpick"})
}

func (h *Handler) Tags(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Tags())
}

func (h *Handler) Movies(c echo.Context) error {
	tags := parseTags(c.QueryParams()["tags"])
	if len(tags) > maxTags {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many tags"})
	}

	count := defaultMovieCount
	if raw := c.QueryParam("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxMovieCount {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "count must be an integer between 1 and " + strconv.Itoa(maxMovieCount),
			})
		}
		count = n
	}

	set, err := h.catalog.FetchCandidates(c.Request().Context(), tags, count)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, catalog.MoviesResponse{Movies: catalog.Movies(set)})
}

func (h *Handler) Reveal(c echo.Context) error {
	var req RevealRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Tags) > maxTags {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "too many tags"})
	}

	st, accepted, err := h.ctrl.TryReveal(c.Request().Context(), req.Tags)
	if err != nil {
		return mapError(c, err)
	}
	if !accepted {
		return c.JSON(http.StatusConflict, toStateResponse(st))
	}
	return c.JSON(http.StatusAccepted, toStateResponse(st))
}

func (h *Handler) RevealState(c echo.Context) error {
	return c.JSON(http.StatusOK, toStateResponse(h.ctrl.State()))
}

func (h *Handler) Abort(c echo.Context) error {
	h.ctrl.Abort()
	if err := h.ctrl.Flush(c.Request().Context()); err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, toStateResponse(h.ctrl.State()))
}

func (h *Handler) Reset(c echo.Context) error {
	st, applied, err := h.ctrl.TryReset(c.Request().Context())
	if err != nil {
		return mapError(c, err)
	}
	if !applied {
		return c.JSON(http.StatusConflict, toStateResponse(st))
	}
	return c.JSON(http.StatusOK, toStateResponse(st))
}

func (h *Handler) Share(c echo.Context) error {
	winner, ok := h.ctrl.State().Winner()
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no settled reveal"})
	}
	return c.JSON(http.StatusOK, presenter.SharePayload(winner))
}

// parseTags accepts repeated and comma-separated tags parameters.
func parseTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, reveal.ErrStopped):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "reveal controller stopped"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"})
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
