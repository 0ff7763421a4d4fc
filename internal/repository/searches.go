package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filmscout/filmscout/internal/domain"
)

// SearchesRepository persists per-term search counters.
type SearchesRepository struct {
	pool *pgxpool.Pool
}

const searchColumns = `
    id,
    search_term,
    count,
    movie_id,
    poster_url,
    created_at,
    updated_at
`

// RecordSearchParams bundles the fields required to record a search event.
type RecordSearchParams struct {
	Term      string
	MovieID   int64
	PosterURL string
}

// RecordSearch inserts a counter row for the term or atomically increments the
// existing one, and indicates whether the row was newly created. The unique
// constraint on search_term makes concurrent recordings of the same term
// serialize onto a single row. On increment the movie/poster fields are left
// untouched: they describe the top result at first-write time and are allowed
// to go stale.
func (r *SearchesRepository) RecordSearch(ctx context.Context, params RecordSearchParams) (domain.SearchRecord, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO search_records (id, search_term, count, movie_id, poster_url)
        VALUES ($1,$2,1,$3,$4)
        ON CONFLICT (search_term)
        DO UPDATE SET count = search_records.count + 1, updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, searchColumns)

	var rec domain.SearchRecord
	var inserted bool
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Term, params.MovieID, params.PosterURL).Scan(
		&rec.ID,
		&rec.SearchTerm,
		&rec.Count,
		&rec.MovieID,
		&rec.PosterURL,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.SearchRecord{}, false, fmt.Errorf("record search: %w", err)
	}
	return rec, inserted, nil
}

// Top returns up to limit records ordered by count descending. Ties break
// deterministically: the least-recently-bumped record first, then id.
func (r *SearchesRepository) Top(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`
        SELECT %s FROM search_records
        ORDER BY count DESC, updated_at ASC, id ASC
        LIMIT $1
    `, searchColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list top searches: %w", err)
	}
	defer rows.Close()

	records := make([]domain.SearchRecord, 0, limit)
	for rows.Next() {
		rec, err := scanSearchRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetByTerm fetches the counter row for a term.
func (r *SearchesRepository) GetByTerm(ctx context.Context, term string) (domain.SearchRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM search_records WHERE search_term = $1`, searchColumns)
	rec, err := scanSearchRecord(r.pool.QueryRow(ctx, query, term))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.SearchRecord{}, ErrNotFound
		}
		return domain.SearchRecord{}, err
	}
	return rec, nil
}

func scanSearchRecord(row pgx.Row) (domain.SearchRecord, error) {
	var rec domain.SearchRecord
	err := row.Scan(
		&rec.ID,
		&rec.SearchTerm,
		&rec.Count,
		&rec.MovieID,
		&rec.PosterURL,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return domain.SearchRecord{}, err
	}
	return rec, nil
}
