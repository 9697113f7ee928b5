package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/pkg/platform/sentinel"
)

// PostgresStore persists archives in the archives table. Snapshot triples and
// stats live in jsonb columns; (de)serialization happens only here, so the
// rest of the subsystem works with typed structures.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the full archive row in one statement. The unique index on
// event_year closes the create race; a 23505 surfaces as sentinel.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, a *Archive) error {
	teams, err := json.Marshal(a.Teams)
	if err != nil {
		return fmt.Errorf("encode teams snapshot: %w", err)
	}
	members, err := json.Marshal(a.Members)
	if err != nil {
		return fmt.Errorf("encode members snapshot: %w", err)
	}
	events, err := json.Marshal(a.PaymentEvents)
	if err != nil {
		return fmt.Errorf("encode payment events snapshot: %w", err)
	}
	stats, err := json.Marshal(a.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO archives (
			event_year, archived_at, expiration_date, is_expired,
			teams_snapshot, members_snapshot, payment_events_snapshot,
			stats, total_teams, total_participants, total_revenue, data_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, a.EventYear, a.ArchivedAt, a.ExpirationDate, a.IsExpired,
		teams, members, events, stats,
		a.TotalTeams, a.TotalParticipants, a.TotalRevenue, a.DataHash)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert archive: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByYear(ctx context.Context, year int) (*Archive, error) {
	var a Archive
	var teams, members, events, stats []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT event_year, archived_at, expiration_date, is_expired,
		       teams_snapshot, members_snapshot, payment_events_snapshot,
		       stats, total_teams, total_participants, total_revenue, data_hash
		FROM archives
		WHERE event_year = $1
	`, year).Scan(
		&a.EventYear, &a.ArchivedAt, &a.ExpirationDate, &a.IsExpired,
		&teams, &members, &events, &stats,
		&a.TotalTeams, &a.TotalParticipants, &a.TotalRevenue, &a.DataHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get archive %d: %w", year, err)
	}

	if err := json.Unmarshal(teams, &a.Teams); err != nil {
		return nil, fmt.Errorf("decode teams snapshot: %w", err)
	}
	if err := json.Unmarshal(members, &a.Members); err != nil {
		return nil, fmt.Errorf("decode members snapshot: %w", err)
	}
	if err := json.Unmarshal(events, &a.PaymentEvents); err != nil {
		return nil, fmt.Errorf("decode payment events snapshot: %w", err)
	}
	if err := json.Unmarshal(stats, &a.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListSummaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_year, archived_at, expiration_date, is_expired,
		       total_teams, total_participants, total_revenue, stats
		FROM archives
		ORDER BY event_year DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var stats []byte
		if err := rows.Scan(&s.EventYear, &s.ArchivedAt, &s.ExpirationDate,
			&s.IsExpired, &s.TotalTeams, &s.TotalParticipants,
			&s.TotalRevenue, &stats); err != nil {
			return nil, fmt.Errorf("scan archive summary: %w", err)
		}
		if err := json.Unmarshal(stats, &s.Stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive summaries: %w", err)
	}
	return summaries, nil
}

func (s *PostgresStore) ListNonExpiredYears(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_year FROM archives WHERE NOT is_expired ORDER BY event_year
	`)
	if err != nil {
		return nil, fmt.Errorf("list non-expired years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate years: %w", err)
	}
	return years, nil
}

// ApplyExpiration is the conditional write guarding the double-application
// race: only a row still holding is_expired = FALSE is rewritten, so the
// enforcement stays observably exactly-once even under concurrent sweeps.
func (s *PostgresStore) ApplyExpiration(ctx context.Context, year int, members []registration.Member, events []registration.PaymentEvent) (bool, error) {
	encodedMembers, err := json.Marshal(members)
	if err != nil {
		return false, fmt.Errorf("encode anonymized members: %w", err)
	}
	encodedEvents, err := json.Marshal(events)
	if err != nil {
		return false, fmt.Errorf("encode anonymized payment events: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE archives
		SET members_snapshot = $2,
		    payment_events_snapshot = $3,
		    is_expired = TRUE
		WHERE event_year = $1 AND NOT is_expired
	`, year, encodedMembers, encodedEvents)
	if err != nil {
		return false, fmt.Errorf("apply expiration for %d: %w", year, err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("expiration rows affected: %w", err)
	}
	return updated > 0, nil
}

// isUniqueViolation detects PostgreSQL error 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
