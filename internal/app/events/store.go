package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/db"
	"tokenhunter-event-gate/internal/source"
	"tokenhunter-event-gate/internal/urlnorm"
	"tokenhunter-event-gate/internal/validate"
)

// ErrValidationFailed is returned when a write is attempted for a
// record the gate rejects. It is the one validation outcome surfaced
// as an error: it hard-stops the insert.
var ErrValidationFailed = errors.New("event validation failed")

const (
	StatusActive  = "ACTIVE"
	StatusInvalid = "INVALID"
)

type Store struct {
	pg        *sqlx.DB
	gate      *validate.EventValidator
	dedupe    *urlnorm.Deduplicator
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

type NewStoreParams struct {
	fx.In

	PG     *sqlx.DB `optional:"true"`
	Gate   *validate.EventValidator
	Dedupe *urlnorm.Deduplicator
	Logger *zap.SugaredLogger
}

func NewStore(p NewStoreParams) *Store {
	return &Store{
		pg:        p.PG,
		gate:      p.Gate,
		dedupe:    p.Dedupe,
		logger:    p.Logger,
		validator: validator.New(),
	}
}

type InsertValidatedInput struct {
	Event     validate.Event
	CreatedBy string `validate:"required"`
}

// Row is the persisted shape of an accepted event.
type Row struct {
	ID               string         `db:"id"`
	CanonicalURL     string         `db:"canonical_url"`
	RawURL           string         `db:"raw_url"`
	Name             string         `db:"name"`
	Description      sql.NullString `db:"description"`
	Source           sql.NullString `db:"source"`
	ExtractionSource sql.NullString `db:"extraction_source"`
	ExtractionMethod sql.NullString `db:"extraction_method"`
	Status           string         `db:"status"`
	InvalidReason    sql.NullString `db:"invalid_reason"`
	CreatedBy        sql.NullString `db:"created_by"`
	CreatedAtMs      int64          `db:"created_at_ms"`
	UpdatedAtMs      int64          `db:"updated_at_ms"`
}

// InsertValidated runs the record through the full validation gate and
// persists it keyed by canonical URL. Re-scrapes of the same event
// under a differently formatted URL update the existing row instead of
// inserting a duplicate.
func (s *Store) InsertValidated(ctx context.Context, in InsertValidatedInput) (string, error) {
	if err := s.validator.Struct(in); err != nil {
		return "", fmt.Errorf("validate insert input: %w", err)
	}

	valid, issues := s.gate.ValidateEvent(ctx, in.Event)
	if !valid {
		return "", fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(issues, "; "))
	}

	rawURL := in.Event.EventURL()
	canonical := s.dedupe.Add(ctx, rawURL)

	src, err := source.Detect(canonical)
	if err != nil {
		src = ""
	}

	now := time.Now().UnixMilli()

	id, err := db.Tx(ctx, s.pg, func(tx *sqlx.Tx) (string, error) {
		var existing string
		err := tx.QueryRowx(
			tx.Rebind(`SELECT id FROM events WHERE canonical_url = ?`),
			canonical,
		).Scan(&existing)
		switch {
		case err == nil:
			_, err = tx.Exec(tx.Rebind(`
UPDATE events SET
  raw_url = ?,
  name = ?,
  description = ?,
  extraction_source = ?,
  extraction_method = ?,
  status = ?,
  invalid_reason = NULL,
  updated_at_ms = ?
WHERE id = ?`),
				rawURL,
				in.Event.Name,
				nullable(in.Event.Description),
				nullable(in.Event.ExtractionSource),
				nullable(in.Event.ExtractionMethod),
				StatusActive,
				now,
				existing,
			)
			return existing, err
		case errors.Is(err, sql.ErrNoRows):
			id := uuid.NewString()
			_, err = tx.Exec(tx.Rebind(`
INSERT INTO events (
  id, canonical_url, raw_url, name, description, source,
  extraction_source, extraction_method, status, created_by,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				id,
				canonical,
				rawURL,
				in.Event.Name,
				nullable(in.Event.Description),
				nullable(string(src)),
				nullable(in.Event.ExtractionSource),
				nullable(in.Event.ExtractionMethod),
				StatusActive,
				nullable(in.CreatedBy),
				now,
				now,
			)
			return id, err
		default:
			return "", err
		}
	})
	if err != nil {
		return "", fmt.Errorf("upsert event: %w", err)
	}

	s.logger.Infow("event_persisted", "id", id, "canonical_url", canonical, "source", src)
	return id, nil
}

// GetByCanonicalURL fetches one event row by canonical URL.
func (s *Store) GetByCanonicalURL(ctx context.Context, canonical string) (*Row, error) {
	if s.pg == nil {
		return nil, fmt.Errorf("db is disabled")
	}
	var row Row
	err := s.pg.GetContext(ctx, &row,
		s.pg.Rebind(`SELECT * FROM events WHERE canonical_url = ?`), canonical)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActive returns the most recently updated active events, for
// periodic revalidation.
func (s *Store) ListActive(ctx context.Context, limit int) ([]Row, error) {
	if s.pg == nil {
		return nil, fmt.Errorf("db is disabled")
	}
	if limit <= 0 {
		limit = 100
	}
	var rows []Row
	err := s.pg.SelectContext(ctx, &rows,
		s.pg.Rebind(`SELECT * FROM events WHERE status = ? ORDER BY updated_at_ms DESC LIMIT ?`),
		StatusActive, limit)
	return rows, err
}

// MarkInvalid flags a stored event whose URL stopped resolving.
func (s *Store) MarkInvalid(ctx context.Context, id, reason string) error {
	if s.pg == nil {
		return fmt.Errorf("db is disabled")
	}
	_, err := s.pg.ExecContext(ctx,
		s.pg.Rebind(`UPDATE events SET status = ?, invalid_reason = ?, updated_at_ms = ? WHERE id = ?`),
		StatusInvalid, reason, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark event invalid: %w", err)
	}
	s.logger.Infow("event_marked_invalid", "id", id, "reason", reason)
	return nil
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
