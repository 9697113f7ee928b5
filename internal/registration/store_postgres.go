package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore reads and wipes the live registration tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListTeams returns every team. The password_hash column is deliberately
// absent from the select list; credentials never leave this layer.
func (s *PostgresStore) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(room, ''), created_at
		FROM teams
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Room, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

func (s *PostgresStore) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, first_name, last_name, email, bac_level, is_leader,
		       food_preference, checked_in, checked_in_at, payment_status,
		       payment_amount, COALESCE(payment_tier, ''), checkout_id,
		       transaction_id, created_at
		FROM members
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var email, checkoutID, transactionID sql.NullString
		var checkedInAt sql.NullTime
		var paymentAmount sql.NullInt64
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.FirstName, &m.LastName, &email, &m.BacLevel,
			&m.IsLeader, &m.FoodPreference, &m.CheckedIn, &checkedInAt,
			&m.PaymentStatus, &paymentAmount, &m.PaymentTier, &checkoutID,
			&transactionID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if email.Valid {
			m.Email = &email.String
		}
		if checkedInAt.Valid {
			m.CheckedInAt = &checkedInAt.Time
		}
		if paymentAmount.Valid {
			m.PaymentAmount = &paymentAmount.Int64
		}
		if checkoutID.Valid {
			m.CheckoutID = &checkoutID.String
		}
		if transactionID.Valid {
			m.TransactionID = &transactionID.String
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ListPaymentEvents tolerates the event-log table not existing yet; older
// deployments predate the checkout integration.
func (s *PostgresStore) ListPaymentEvents(ctx context.Context) ([]PaymentEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, event_type, amount, COALESCE(tier, ''),
		       checkout_id, metadata, created_at
		FROM payment_events
		ORDER BY created_at
	`)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var events []PaymentEvent
	for rows.Next() {
		var e PaymentEvent
		var checkoutID, metadata sql.NullString
		if err := rows.Scan(&e.ID, &e.MemberID, &e.EventType, &e.Amount,
			&e.Tier, &checkoutID, &metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		if checkoutID.Valid {
			e.CheckoutID = &checkoutID.String
		}
		if metadata.Valid {
			e.Metadata = &metadata.String
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) RegistrationMonths(ctx context.Context) ([]MonthCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT EXTRACT(YEAR FROM created_at)::int,
		       EXTRACT(MONTH FROM created_at)::int,
		       COUNT(*)::int
		FROM members
		GROUP BY 1, 2
	`)
	if err != nil {
		return nil, fmt.Errorf("registration months: %w", err)
	}
	defer rows.Close()

	var buckets []MonthCount
	for rows.Next() {
		var year, month, count int
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, fmt.Errorf("scan registration month: %w", err)
		}
		buckets = append(buckets, MonthCount{Year: year, Month: time.Month(month), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration months: %w", err)
	}
	return buckets, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&c.Teams); err != nil {
		return Counts{}, fmt.Errorf("count teams: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&c.Members); err != nil {
		return Counts{}, fmt.Errorf("count members: %w", err)
	}
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_events`).Scan(&c.PaymentEvents)
	if err != nil && !isUndefinedTable(err) {
		return Counts{}, fmt.Errorf("count payment events: %w", err)
	}
	return c, nil
}

// DeleteAll wipes the three tables in dependency order inside one
// transaction so a mid-sequence failure leaves nothing half-deleted. The
// event-log table is probed up front because an undefined-table error inside
// the transaction would poison it.
func (s *PostgresStore) DeleteAll(ctx context.Context) (Counts, error) {
	hasEvents, err := s.hasPaymentEventsTable(ctx)
	if err != nil {
		return Counts{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("begin reset tx: %w", err)
	}
	defer tx.Rollback()

	var deleted Counts
	if hasEvents {
		res, err := tx.ExecContext(ctx, `DELETE FROM payment_events`)
		if err != nil {
			return Counts{}, fmt.Errorf("delete payment events: %w", err)
		}
		n, _ := res.RowsAffected()
		deleted.PaymentEvents = int(n)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM members`)
	if err != nil {
		return Counts{}, fmt.Errorf("delete members: %w", err)
	}
	n, _ := res.RowsAffected()
	deleted.Members = int(n)

	res, err = tx.ExecContext(ctx, `DELETE FROM teams`)
	if err != nil {
		return Counts{}, fmt.Errorf("delete teams: %w", err)
	}
	n, _ = res.RowsAffected()
	deleted.Teams = int(n)

	if err := tx.Commit(); err != nil {
		return Counts{}, fmt.Errorf("commit reset tx: %w", err)
	}
	return deleted, nil
}

func (s *PostgresStore) hasPaymentEventsTable(ctx context.Context) (bool, error) {
	var reg sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT to_regclass('payment_events')::text`).Scan(&reg)
	if err != nil {
		return false, fmt.Errorf("probe payment_events table: %w", err)
	}
	return reg.Valid, nil
}

// isUndefinedTable detects PostgreSQL error 42P01 (undefined_table).
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	return false
}
