package verdicts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/db"
	"tokenhunter-event-gate/internal/validate"
)

// Store is an append-only audit log of gate decisions, kept on the
// Turso sqlite side so the ops console can inspect why a URL was
// accepted or rejected without touching the primary events database.
type Store struct {
	conn      db.Conn
	logger    *zap.SugaredLogger
	validator *validator.Validate
	now       func() time.Time
}

type NewStoreParams struct {
	fx.In

	Conn   db.Conn `name:"sqlite"`
	Logger *zap.SugaredLogger
}

func NewStore(p NewStoreParams) *Store {
	return &Store{
		conn:      p.Conn,
		logger:    p.Logger,
		validator: validator.New(),
		now:       time.Now,
	}
}

type RecordInput struct {
	URL       string `validate:"required"`
	Verdict   validate.Verdict
	Source    string
	RequestID string
}

// Record persists one verdict. When the sqlite side is not configured
// the call is a logged no-op so the gate keeps serving.
func (s *Store) Record(ctx context.Context, in RecordInput) (string, error) {
	_ = ctx

	if err := s.validator.Struct(in); err != nil {
		return "", fmt.Errorf("validate verdict input: %w", err)
	}

	id := uuid.NewString()

	reasonCol := sql.NullString{}
	if in.Verdict.Reason != "" {
		reasonCol = sql.NullString{String: in.Verdict.Reason, Valid: true}
	}
	titleCol := sql.NullString{}
	if in.Verdict.Title != "" {
		titleCol = sql.NullString{String: in.Verdict.Title, Valid: true}
	}

	q := s.conn.Rebind(`
INSERT INTO url_verdicts (
  id,
  url,
  valid,
  title,
  reason,
  source,
  request_id,
  checked_at_ms
) VALUES (
  ?,
  ?,
  ?,
  ?,
  ?,
  ?,
  ?,
  ?
)`)

	_, err := s.conn.Exec(q,
		id,
		in.URL,
		in.Verdict.Valid,
		titleCol,
		reasonCol,
		nullString(in.Source),
		nullString(in.RequestID),
		s.now().UnixMilli(),
	)
	if err != nil {
		if errors.Is(err, db.ErrSQLiteDisabled) {
			s.logger.Infow(
				"turso_sqlite_disabled_skip_persist",
				"reason", err.Error(),
			)
			return id, nil
		}
		return "", fmt.Errorf("insert url_verdicts: %w", err)
	}

	s.logger.Infow(
		"url_verdict_recorded",
		"id", id,
		"url", in.URL,
		"valid", in.Verdict.Valid,
	)

	return id, nil
}

// Recent returns the latest verdicts for a URL, newest first.
func (s *Store) Recent(ctx context.Context, url string, limit int) ([]Row, error) {
	_ = ctx

	if limit <= 0 {
		limit = 20
	}

	q := s.conn.Rebind(`
SELECT id, url, valid, title, reason, source, request_id, checked_at_ms
FROM url_verdicts
WHERE url = ?
ORDER BY checked_at_ms DESC
LIMIT ?`)

	rows, err := s.conn.Queryx(q, url, limit)
	if err != nil {
		if errors.Is(err, db.ErrSQLiteDisabled) {
			return nil, nil
		}
		return nil, fmt.Errorf("query url_verdicts: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.URL, &r.Valid, &r.Title, &r.Reason, &r.Source, &r.RequestID, &r.CheckedAtMs); err != nil {
			return nil, fmt.Errorf("scan url_verdicts row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type Row struct {
	ID          string
	URL         string
	Valid       bool
	Title       sql.NullString
	Reason      sql.NullString
	Source      sql.NullString
	RequestID   sql.NullString
	CheckedAtMs int64
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
