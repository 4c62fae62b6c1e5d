package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/spinpick/internal/ir"
)

// DefaultClientTimeout bounds a single catalog request.
const DefaultClientTimeout = 10 * time.Second

// MaxRequestCount is the largest count a spinpick server accepts on
// GET /api/movies. Larger requests are clamped by the client.
const MaxRequestCount = 100

// MoviesResponse is the body of GET /api/movies.
type MoviesResponse struct {
	Movies []Movie `json:"movies"`
}

// Client fetches candidates from a spinpick HTTP service.
// It implements reveal.Provider. Requests are not retried.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a client for the service at baseURL.
// A nil httpClient uses one with DefaultClientTimeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse provider url: unsupported scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultClientTimeout}
	}
	return &Client{base: u, http: httpClient}, nil
}

// FetchCandidates implements reveal.Provider. desired is an upper bound:
// it is clamped to MaxRequestCount on the wire and longer responses are cut.
func (c *Client) FetchCandidates(ctx context.Context, tags []string, desired int) (ir.CandidateSet, error) {
	q := url.Values{}
	if len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	if desired > 0 {
		q.Set("count", strconv.Itoa(min(desired, MaxRequestCount)))
	}

	var resp MoviesResponse
	if err := c.get(ctx, "/api/movies", q, &resp); err != nil {
		return nil, err
	}
	movies := resp.Movies
	if desired > 0 && len(movies) > desired {
		movies = movies[:desired]
	}
	return Candidates(movies), nil
}

// Tags fetches the service's tag index.
func (c *Client) Tags(ctx context.Context) (TagIndex, error) {
	var idx TagIndex
	err := c.get(ctx, "/api/tags", nil, &idx)
	return idx, err
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{Path: path, Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// StatusError reports a non-200 response from the catalog service.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.Path, e.Code, e.Body)
}
