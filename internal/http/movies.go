package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/filmscout/filmscout/internal/domain"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/metrics"
)

// recordTimeout bounds the detached fire-and-forget telemetry write.
const recordTimeout = 3 * time.Second

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type movieListResponse struct {
	Items []movieResponse `json:"items"`
}

type movieResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"voteAverage"`
}

type trendingListResponse struct {
	Items []trendingResponse `json:"items"`
}

type trendingResponse struct {
	SearchTerm string `json:"searchTerm"`
	Count      int64  `json:"count"`
	MovieID    int64  `json:"movieId"`
	PosterURL  string `json:"posterUrl,omitempty"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	movies, err := s.movies.FetchMovies(r.Context(), query)
	if err != nil {
		metrics.MovieFetchesTotal.WithLabelValues("error").Inc()
		s.logger.Printf("fetch movies error for query %q: %v", query, err)

		message := "failed to fetch movies"
		var fetchErr *metadata.FetchError
		if errors.As(err, &fetchErr) {
			message = fetchErr.Message
		}
		s.respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", message)
		return
	}
	metrics.MovieFetchesTotal.WithLabelValues("ok").Inc()

	// Non-empty searches that found something bump the trending counter for
	// the top result. Detached and fire-and-forget: the response never waits
	// on, or fails because of, the telemetry write.
	if query != "" && len(movies) > 0 {
		top := movies[0]
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			s.recorder.Record(ctx, query, top)
		}()
	}

	items := make([]movieResponse, 0, len(movies))
	for _, movie := range movies {
		items = append(items, s.toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	records, err := s.recorder.Trending(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "TELEMETRY_ERROR", "Failed to load trending searches")
		return
	}

	items := make([]trendingResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, trendingResponse{
			SearchTerm: rec.SearchTerm,
			Count:      rec.Count,
			MovieID:    rec.MovieID,
			PosterURL:  rec.PosterURL,
		})
	}
	s.respondJSON(w, http.StatusOK, trendingListResponse{Items: items})
}

func (s *Server) toMovieResponse(movie domain.MovieSummary) movieResponse {
	return movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		PosterURL:   s.recorder.PosterURL(movie.PosterPath),
		Overview:    movie.Overview,
		ReleaseDate: movie.ReleaseDate,
		Popularity:  movie.Popularity,
		VoteAverage: movie.VoteAverage,
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
