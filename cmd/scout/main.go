package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/repository"
	"github.com/filmscout/filmscout/internal/search"
	"github.com/filmscout/filmscout/internal/store"
	"github.com/filmscout/filmscout/internal/telemetry"
)

// scout is a terminal front end for movie discovery: type a query, get the
// debounced results, and bump the trending counters as a side effect.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stderr, "[scout] ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	movies, err := metadata.NewHTTPClient(cfg.TMDBBaseURL, cfg.TMDBAPIToken, time.Duration(cfg.TMDBTimeoutSecs)*time.Second, logger)
	if err != nil {
		log.Fatalf("init metadata client: %v", err)
	}

	repo := repository.New(st)
	recorder := telemetry.NewRecorder(repo.Searches, cfg.PosterBaseURL, cfg.TrendingLimit, logger)

	printTrending(recorder)

	coord := search.New(movies, recorder, time.Duration(cfg.DebounceMillis)*time.Millisecond, printResult)
	defer coord.Close()

	fmt.Println("type to search (empty line lists popular movies, Ctrl-D exits):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		coord.Input(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Printf("read input: %v", err)
	}
	coord.Flush()
}

func printResult(res search.Result) {
	if res.Err != nil {
		fmt.Printf("  ! %v\n", res.Err)
		return
	}
	if len(res.Movies) == 0 {
		fmt.Printf("  no results for %q\n", res.Query)
		return
	}
	label := "popular"
	if res.Query != "" {
		label = fmt.Sprintf("results for %q", res.Query)
	}
	fmt.Printf("%s:\n", label)
	for i, movie := range res.Movies {
		if i == 10 {
			break
		}
		fmt.Printf("  %2d. %s (%s)\n", i+1, movie.Title, movie.ReleaseDate)
	}
}

func printTrending(recorder *telemetry.Recorder) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	records, err := recorder.Trending(ctx)
	if err != nil {
		fmt.Println("trending searches unavailable")
		return
	}
	if len(records) == 0 {
		return
	}
	fmt.Println("trending searches:")
	for i, rec := range records {
		fmt.Printf("  %d. %s (%d)\n", i+1, rec.SearchTerm, rec.Count)
	}
}
