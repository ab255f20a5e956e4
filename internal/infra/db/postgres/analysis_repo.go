package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save appends one result row. Results are never updated in place;
// corrections arrive as new rows.
func (r *AnalysisRepository) Save(ctx context.Context, res *domain.Result) error {
	table, err := tableFor(res.Domain)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
INSERT INTO %s
  (id, farmer_id, input, raw_analysis, fields, image_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`, table)

	input, err := jsonOrEmpty(res.Input)
	if err != nil {
		return fmt.Errorf("encoding input: %w", err)
	}
	fields, err := jsonOrEmpty(res.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		res.ID, stringOrDash(res.FarmerID), input, res.RawAnalysis, fields, res.ImageURL, created,
	)
	return err
}

// Get by farmer + id
func (r *AnalysisRepository) Get(ctx context.Context, farmerID string, d domain.Domain, id domain.ResultID) (*domain.Result, error) {
	table, err := tableFor(d)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
SELECT id, farmer_id, input, raw_analysis, fields, image_url, created_at
FROM %s
WHERE farmer_id=$1 AND id=$2 LIMIT 1;
`, table)

	res, err := scanRow(r.db.QueryRowContext(ctx, q, farmerID, id), d)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Latest results per farmer, newest first
func (r *AnalysisRepository) Latest(ctx context.Context, farmerID string, d domain.Domain, limit int) ([]*domain.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	table, err := tableFor(d)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
SELECT id, farmer_id, input, raw_analysis, fields, image_url, created_at
FROM %s
WHERE farmer_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;
`, table)

	rows, err := r.db.QueryContext(ctx, q, farmerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, d)
}

// Paginate with offset + limit (classic pagination)
func (r *AnalysisRepository) Paginate(ctx context.Context, farmerID string, d domain.Domain, page, pageSize int) ([]*domain.Result, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	table, err := tableFor(d)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
SELECT id, farmer_id, input, raw_analysis, fields, image_url, created_at
FROM %s
WHERE farmer_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`, table)

	rows, err := r.db.QueryContext(ctx, q, farmerID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, d)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner, d domain.Domain) (*domain.Result, error) {
	var res domain.Result
	var input, fields []byte
	if err := row.Scan(&res.ID, &res.FarmerID, &input, &res.RawAnalysis, &fields, &res.ImageURL, &res.CreatedAt); err != nil {
		return nil, err
	}
	res.Domain = d
	if len(input) > 0 {
		if err := json.Unmarshal(input, &res.Input); err != nil {
			return nil, fmt.Errorf("decoding input: %w", err)
		}
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &res.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields: %w", err)
		}
	}
	return &res, nil
}

func collect(rows *sql.Rows, d domain.Domain) ([]*domain.Result, error) {
	var out []*domain.Result
	for rows.Next() {
		res, err := scanRow(rows, d)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
