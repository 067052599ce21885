package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agrifund/internal/registry/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/platform/sentinel"
)

// Postgres persists applicant records in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE applicants (
//	    id       UUID PRIMARY KEY,
//	    seq      BIGSERIAL,
//	    category TEXT NOT NULL,
//	    status   TEXT NOT NULL,
//	    record   JSONB NOT NULL
//	);
//	CREATE INDEX applicants_category_idx ON applicants (category, seq DESC);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed applicant store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, a *models.Applicant) error {
	record, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal applicant: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applicants (id, category, status, record)
		VALUES ($1, $2, $3, $4)
	`, a.ID.String(), a.Category.String(), string(a.Status), record)
	if err != nil {
		return fmt.Errorf("create applicant: %w", err)
	}
	return nil
}

func scanApplicant(data []byte) (*models.Applicant, error) {
	var a models.Applicant
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal applicant: %w", err)
	}
	return &a, nil
}

func (s *Postgres) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Applicant, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM applicants WHERE id = $1`, tenantID.String(),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find applicant: %w", err)
	}
	return scanApplicant(record)
}

func (s *Postgres) FindActiveByCategory(ctx context.Context, category id.Role) (*models.Applicant, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM applicants
		WHERE category = $1 AND status <> 'unverified'
		ORDER BY seq DESC
		LIMIT 1
	`, category.String()).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active applicant: %w", err)
	}
	return scanApplicant(record)
}

func (s *Postgres) FindLatestByCategory(ctx context.Context, category id.Role) (*models.Applicant, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM applicants
		WHERE category = $1
		ORDER BY seq DESC
		LIMIT 1
	`, category.String()).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest applicant: %w", err)
	}
	return scanApplicant(record)
}

func (s *Postgres) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Applicant) error, mutate func(*models.Applicant)) (*models.Applicant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var record []byte
	err = tx.QueryRowContext(ctx,
		`SELECT record FROM applicants WHERE id = $1 FOR UPDATE`, tenantID.String(),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock applicant: %w", err)
	}

	a, err := scanApplicant(record)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(a)
	}

	updated, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal applicant: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE applicants SET status = $2, record = $3 WHERE id = $1`,
		a.ID.String(), string(a.Status), updated,
	)
	if err != nil {
		return nil, fmt.Errorf("update applicant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}
