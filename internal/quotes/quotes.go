// Package quotes stores priced stair orders so they can be listed per job.
package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/stairworks/internal/pricing"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned by Get for an unknown quote id.
var ErrNotFound = errors.New("quote not found")

// Quote is a saved calculation.
type Quote struct {
	ID        string            `json:"id"`
	JobID     int64             `json:"jobId"`
	CreatedAt time.Time         `json:"createdAt"`
	Request   json.RawMessage   `json:"request"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Total     decimal.Decimal   `json:"total"`
}

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// Save records req and its breakdown under a new id.
func (r *Repo) Save(ctx context.Context, jobID int64, req pricing.OrderRequest, b pricing.Breakdown) (Quote, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote request: %w", err)
	}
	breakdownJSON, err := json.Marshal(b)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote breakdown: %w", err)
	}

	q := Quote{
		ID:        uuid.NewString(),
		JobID:     jobID,
		CreatedAt: r.now().UTC(),
		Request:   reqJSON,
		Breakdown: b,
		Total:     b.Total,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stair_quotes (id, job_id, created_at, request_json, breakdown_json, total)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.ID, q.JobID, q.CreatedAt.Format(timeLayout), string(reqJSON), string(breakdownJSON), q.Total.String())
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	return q, nil
}

// List returns saved quotes newest first, limited to jobID when it is non-zero.
func (r *Repo) List(ctx context.Context, jobID int64) ([]Quote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, created_at, request_json, breakdown_json, total
		FROM stair_quotes
		WHERE (? = 0 OR job_id = ?)
		ORDER BY created_at DESC, id DESC
	`, jobID, jobID)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

// Get returns one saved quote.
func (r *Repo) Get(ctx context.Context, id string) (Quote, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, job_id, created_at, request_json, breakdown_json, total
		FROM stair_quotes
		WHERE id = ?
	`, id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return q, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (Quote, error) {
	var (
		q             Quote
		createdAt     string
		reqJSON       string
		breakdownJSON string
	)
	if err := row.Scan(&q.ID, &q.JobID, &createdAt, &reqJSON, &breakdownJSON, &q.Total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quote{}, err
		}
		return Quote{}, fmt.Errorf("scan quote: %w", err)
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Quote{}, fmt.Errorf("parse quote %s created_at: %w", q.ID, err)
	}
	q.CreatedAt = t
	q.Request = json.RawMessage(reqJSON)
	if err := json.Unmarshal([]byte(breakdownJSON), &q.Breakdown); err != nil {
		return Quote{}, fmt.Errorf("decode quote %s breakdown: %w", q.ID, err)
	}
	return q, nil
}
