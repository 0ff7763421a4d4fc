package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
)

type movieEntry struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
}

type listResponse struct {
	Page         int          `json:"page"`
	Results      []movieEntry `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

func main() {
	var (
		port    = flag.String("port", "9098", "port to listen on")
		data    = flag.String("data", "mock-movies.json", "path to mock data file")
		verbose = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read mock data: %v", err)
	}

	var movies []movieEntry
	if err := json.Unmarshal(file, &movies); err != nil {
		log.Fatalf("parse mock data: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		if *verbose {
			log.Printf("discover sort_by=%s", r.URL.Query().Get("sort_by"))
		}
		sorted := make([]movieEntry, len(movies))
		copy(sorted, movies)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Popularity > sorted[j].Popularity
		})
		respond(w, sorted)
	})
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		query := strings.ToLower(r.URL.Query().Get("query"))
		if *verbose {
			log.Printf("search query=%q", query)
		}
		var matched []movieEntry
		for _, movie := range movies {
			if strings.Contains(strings.ToLower(movie.Title), query) {
				matched = append(matched, movie)
			}
		}
		respond(w, matched)
	})

	addr := ":" + *port
	log.Printf("mock metadata service listening on %s (%d movies)", addr, len(movies))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func respond(w http.ResponseWriter, results []movieEntry) {
	if results == nil {
		results = []movieEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	payload := listResponse{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
