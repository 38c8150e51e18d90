// Package ledger is the gateway to the persistent viewer points store. All
// balance mutations are expressed as typed adjustments applied through
// parameterized statements; no caller composes SQL.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/onnwee/coinbot/irc"
	"github.com/onnwee/coinbot/telemetry"
)

// Op is a balance adjustment operation.
type Op int

const (
	OpAdd Op = iota
	OpSubtract
	OpSet
)

// Adjustment mutates one viewer's balance. Add and Subtract apply only to
// viewers already present in the ledger; Set upserts.
type Adjustment struct {
	Op     Op
	Name   string
	Amount int
}

// Balance is one viewer's points, display-cased.
type Balance struct {
	Name   string
	Points int
}

// Store implements the ledger over Postgres. Each Apply call is one atomic
// transaction; a failed statement leaves the store untouched.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Lookup returns balances for the given viewers, preserving input order and
// defaulting absent viewers to zero points.
func (s *Store) Lookup(ctx context.Context, names []string) ([]Balance, error) {
	if len(names) == 0 {
		return nil, nil
	}
	telemetry.IncLedgerLookups()

	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = strings.ToLower(n)
	}
	q := `SELECT username, points FROM viewers WHERE username IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	defer rows.Close()

	found := make(map[string]int, len(names))
	for rows.Next() {
		var name string
		var points int
		if err := rows.Scan(&name, &points); err != nil {
			return nil, fmt.Errorf("ledger lookup scan: %w", err)
		}
		found[name] = points
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger lookup rows: %w", err)
	}

	out := make([]Balance, 0, len(names))
	for _, n := range names {
		out = append(out, Balance{Name: irc.Capitalize(strings.ToLower(n)), Points: found[strings.ToLower(n)]})
	}
	return out, nil
}

// Exists reports whether the viewer has a ledger row.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM viewers WHERE username=$1`, strings.ToLower(name)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return true, nil
}

// Apply executes the adjustments in a single transaction.
func (s *Store) Apply(ctx context.Context, adjs ...Adjustment) error {
	if len(adjs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range adjs {
		name := strings.ToLower(a.Name)
		switch a.Op {
		case OpAdd:
			_, err = tx.ExecContext(ctx, `UPDATE viewers SET points = points + $1 WHERE username=$2`, a.Amount, name)
		case OpSubtract:
			_, err = tx.ExecContext(ctx, `UPDATE viewers SET points = points - $1 WHERE username=$2`, a.Amount, name)
		case OpSet:
			_, err = tx.ExecContext(ctx, `INSERT INTO viewers (username, points) VALUES ($1, $2)
				ON CONFLICT (username) DO UPDATE SET points=EXCLUDED.points`, name, a.Amount)
		default:
			err = fmt.Errorf("unknown op %d", a.Op)
		}
		if err != nil {
			return fmt.Errorf("ledger apply: %w", err)
		}
		telemetry.IncLedgerWrites()
	}
	return tx.Commit()
}

// Deposit upserts an additive credit for each viewer, used by handouts and
// the push command: new viewers get a row, existing viewers accumulate.
func (s *Store) Deposit(ctx context.Context, names []string, amount int) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range names {
		name := strings.ToLower(n)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO viewers (username, points) VALUES ($1, $2)
			ON CONFLICT (username) DO UPDATE SET points = viewers.points + EXCLUDED.points`, name, amount); err != nil {
			return fmt.Errorf("ledger deposit: %w", err)
		}
		telemetry.IncLedgerWrites()
	}
	return tx.Commit()
}
