package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/filmscout/filmscout/internal/domain"
)

// FetchError indicates the movie metadata service could not satisfy a request.
// The message is safe to surface to end users.
type FetchError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadata: %s: %v", e.Message, e.Err)
	}
	return "metadata: " + e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

const genericFetchMessage = "failed to fetch movies"

// Client defines the contract for querying the movie metadata service.
type Client interface {
	// FetchMovies lists popular movies when query is empty, or searches by
	// text otherwise. The returned slice preserves upstream order.
	FetchMovies(ctx context.Context, query string) ([]domain.MovieSummary, error)
}

// HTTPClient implements Client over HTTP with bearer-token auth. Calls pass
// through a circuit breaker so a dead upstream fails fast instead of tying up
// the caller for the full transport timeout on every request.
type HTTPClient struct {
	baseURL  *url.URL
	apiToken string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]domain.MovieSummary]
	logger   *log.Logger
}

// NewHTTPClient constructs a new HTTP-backed metadata client.
func NewHTTPClient(baseURL, apiToken string, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse metadata url: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[[]domain.MovieSummary](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("metadata: breaker %s %s -> %s", name, from, to)
		},
	})

	return &HTTPClient{
		baseURL:  parsed,
		apiToken: apiToken,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		breaker: breaker,
		logger:  logger,
	}, nil
}

// FetchMovies retrieves popular movies, or text-search results when query is
// non-empty.
func (c *HTTPClient) FetchMovies(ctx context.Context, query string) ([]domain.MovieSummary, error) {
	results, err := c.breaker.Execute(func() ([]domain.MovieSummary, error) {
		return c.fetch(ctx, query)
	})
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		// Transport failures and breaker rejections share the generic message.
		return nil, &FetchError{Message: genericFetchMessage, Err: err}
	}
	return results, nil
}

func (c *HTTPClient) fetch(ctx context.Context, query string) ([]domain.MovieSummary, error) {
	// Join rather than resolve: the base URL may carry a path prefix such as
	// the /3 API version segment, which an absolute-path reference would drop.
	endpoint := *c.baseURL
	q := url.Values{}
	if strings.TrimSpace(query) != "" {
		endpoint.Path = path.Join("/", endpoint.Path, "search", "movie")
		q.Set("query", query)
	} else {
		endpoint.Path = path.Join("/", endpoint.Path, "discover", "movie")
		q.Set("sort_by", "popularity.desc")
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Printf("metadata: unexpected status %d for query %q", resp.StatusCode, query)
		return nil, &FetchError{Message: genericFetchMessage, StatusCode: resp.StatusCode}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Message: genericFetchMessage, Err: fmt.Errorf("decode metadata response: %w", err)}
	}

	// Some metadata providers signal failure inside a 200 body with an
	// OMDb-shaped {"Response":"False","Error":...} payload.
	if payload.Response == "False" {
		msg := payload.ErrorMessage
		if msg == "" {
			msg = genericFetchMessage
		}
		return nil, &FetchError{Message: msg}
	}

	if payload.Results == nil {
		return []domain.MovieSummary{}, nil
	}
	return payload.Results, nil
}

type apiResponse struct {
	Page         int                   `json:"page"`
	Results      []domain.MovieSummary `json:"results"`
	TotalPages   int                   `json:"total_pages"`
	TotalResults int                   `json:"total_results"`
	Response     string                `json:"Response"`
	ErrorMessage string                `json:"Error"`
}
