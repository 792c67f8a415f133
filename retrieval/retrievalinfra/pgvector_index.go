package retrievalinfra

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adi-uchiha/jems/retrieval"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex runs cosine-similarity queries against the job_postings table
type PgvectorIndex struct {
	db *sqlx.DB
}

func NewPgvectorIndex(db *sqlx.DB) retrieval.VectorIndex {
	return &PgvectorIndex{db: db}
}

// matchRow is a row from the similarity query. Metadata columns are nullable
// because postings arrive from heterogeneous source sites.
type matchRow struct {
	ID       string         `db:"id"`
	Title    sql.NullString `db:"title"`
	Company  sql.NullString `db:"company"`
	Location sql.NullString `db:"location"`
	URL      sql.NullString `db:"url"`
	Source   sql.NullString `db:"source"`
	Score    float64        `db:"score"`
}

// Query returns the topK nearest postings by cosine similarity, best first
func (i *PgvectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]retrieval.IndexMatch, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty embedding vector")
	}
	if topK <= 0 {
		return nil, nil
	}

	query := `
		SELECT
			id, title, company, location, url, source,
			1 - (embedding <=> $1) AS score
		FROM job_postings
		ORDER BY embedding <=> $1
		LIMIT $2`

	var rows []matchRow
	if err := i.db.SelectContext(ctx, &rows, query, pgvector.NewVector(embedding), topK); err != nil {
		return nil, fmt.Errorf("query job postings index: %w", err)
	}

	matches := make([]retrieval.IndexMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, retrieval.IndexMatch{
			ID:       row.ID,
			Score:    row.Score,
			Title:    orUnknown(row.Title),
			Company:  orUnknown(row.Company),
			Location: orUnknown(row.Location),
			URL:      orEmpty(row.URL),
			Source:   orEmpty(row.Source),
		})
	}

	return matches, nil
}

func orUnknown(s sql.NullString) string {
	if s.Valid && s.String != "" {
		return s.String
	}
	return "Unknown"
}

func orEmpty(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
