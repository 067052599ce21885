package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/platform/sentinel"
)

// Postgres persists notifications in PostgreSQL. The record itself is stored
// as a JSON document; the columns queries need (target role, scheme,
// application status) are extracted at write time.
//
// Expected schema:
//
//	CREATE TABLE notifications (
//	    id                 UUID PRIMARY KEY,
//	    seq                BIGSERIAL,
//	    target_role        TEXT NOT NULL,
//	    scheme_id          UUID,
//	    applicant_role     TEXT,
//	    application_status TEXT,
//	    record             JSONB NOT NULL
//	);
//	CREATE INDEX notifications_target_role_idx ON notifications (target_role, seq);
//	CREATE INDEX notifications_scheme_idx ON notifications (scheme_id, applicant_role)
//	    WHERE application_status = 'approved';
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// schemeColumns extracts the queryable scheme-application columns, all NULL
// for non-application payloads.
func schemeColumns(n *models.Notification) (schemeID, applicantRole, status sql.NullString) {
	app, ok := n.Payload.(*models.SchemeApplicationPayload)
	if !ok {
		return
	}
	schemeID = sql.NullString{String: app.SchemeID.String(), Valid: true}
	applicantRole = sql.NullString{String: app.ApplicantRole.String(), Valid: true}
	status = sql.NullString{String: string(app.Status), Valid: true}
	return
}

func (s *Postgres) Append(ctx context.Context, n *models.Notification) error {
	record, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	schemeID, applicantRole, status := schemeColumns(n)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, target_role, scheme_id, applicant_role, application_status, record)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID.String(), n.TargetRole.String(), schemeID, applicantRole, status, record)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func scanRecord(data []byte) (*models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	return &n, nil
}

func (s *Postgres) FindByID(ctx context.Context, nid id.NotificationID) (*models.Notification, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM notifications WHERE id = $1`, nid.String(),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return scanRecord(record)
}

func (s *Postgres) ListByTargetRole(ctx context.Context, role id.Role) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM notifications WHERE target_role = $1 ORDER BY seq`, role.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n, err := scanRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Execute validates and mutates one record inside a transaction holding a
// row lock, so concurrent decisions on the same notification serialize.
func (s *Postgres) Execute(ctx context.Context, nid id.NotificationID, validate func(*models.Notification) error, mutate func(*models.Notification)) (*models.Notification, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var record []byte
	err = tx.QueryRowContext(ctx,
		`SELECT record FROM notifications WHERE id = $1 FOR UPDATE`, nid.String(),
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock notification: %w", err)
	}

	n, err := scanRecord(record)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(n); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(n)
	}

	updated, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	schemeID, applicantRole, status := schemeColumns(n)
	_, err = tx.ExecContext(ctx, `
		UPDATE notifications
		SET record = $2, scheme_id = $3, applicant_role = $4, application_status = $5
		WHERE id = $1
	`, n.ID.String(), updated, schemeID, applicantRole, status)
	if err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *Postgres) FindApprovedApplication(ctx context.Context, schemeID id.SchemeID, role id.Role) (*models.Notification, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT record FROM notifications
		WHERE scheme_id = $1 AND applicant_role = $2 AND application_status = 'approved'
		ORDER BY seq
		LIMIT 1
	`, schemeID.String(), role.String()).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find approved application: %w", err)
	}
	return scanRecord(record)
}
