package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the session store's SQL statements.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const insertSession = `INSERT INTO sessions (id, created_at) VALUES (?, ?)`

func (q *Queries) InsertSession(ctx context.Context, id, createdAt string) error {
	_, err := q.db.ExecContext(ctx, insertSession, id, createdAt)
	return err
}

const getSession = `SELECT id, created_at FROM sessions WHERE id = ?`

type sessionRow struct {
	ID        string
	CreatedAt string
}

func (q *Queries) GetSession(ctx context.Context, id string) (sessionRow, error) {
	var r sessionRow
	err := q.db.QueryRowContext(ctx, getSession, id).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

const insertDebt = `INSERT INTO debts (session_id, position, id, name, balance_cents, apr, minimum_cents, planned_cents)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type insertDebtParams struct {
	SessionID    string
	Position     int
	ID           string
	Name         string
	BalanceCents int64
	APR          string
	MinimumCents int64
	PlannedCents int64
}

func (q *Queries) InsertDebt(ctx context.Context, p insertDebtParams) error {
	_, err := q.db.ExecContext(ctx, insertDebt,
		p.SessionID, p.Position, p.ID, p.Name, p.BalanceCents, p.APR, p.MinimumCents, p.PlannedCents)
	return err
}

const listDebts = `SELECT id, name, balance_cents, apr, minimum_cents, planned_cents
FROM debts WHERE session_id = ? ORDER BY position`

type debtRow struct {
	ID           string
	Name         string
	BalanceCents int64
	APR          string
	MinimumCents int64
	PlannedCents int64
}

func (q *Queries) ListDebts(ctx context.Context, sessionID string) ([]debtRow, error) {
	rows, err := q.db.QueryContext(ctx, listDebts, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []debtRow
	for rows.Next() {
		var r debtRow
		if err := rows.Scan(&r.ID, &r.Name, &r.BalanceCents, &r.APR, &r.MinimumCents, &r.PlannedCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const insertRun = `INSERT INTO runs (session_id, strategy, extra_cents, target_id, split, horizon,
	converged, months, total_interest_cents, total_paid_cents, reason, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type runRow struct {
	ID                 int64
	SessionID          string
	Strategy           string
	ExtraCents         int64
	TargetID           string
	Split              string
	Horizon            int
	Converged          bool
	Months             int
	TotalInterestCents int64
	TotalPaidCents     int64
	Reason             string
	CreatedAt          string
}

func (q *Queries) InsertRun(ctx context.Context, r runRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertRun,
		r.SessionID, r.Strategy, r.ExtraCents, r.TargetID, r.Split, r.Horizon,
		r.Converged, r.Months, r.TotalInterestCents, r.TotalPaidCents, r.Reason, r.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listRuns = `SELECT id, session_id, strategy, extra_cents, target_id, split, horizon,
	converged, months, total_interest_cents, total_paid_cents, reason, created_at
FROM runs WHERE session_id = ? ORDER BY id`

func (q *Queries) ListRuns(ctx context.Context, sessionID string) ([]runRow, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []runRow
	for rows.Next() {
		var r runRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Strategy, &r.ExtraCents, &r.TargetID, &r.Split,
			&r.Horizon, &r.Converged, &r.Months, &r.TotalInterestCents, &r.TotalPaidCents,
			&r.Reason, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const (
	deleteRuns    = `DELETE FROM runs WHERE session_id = ?`
	deleteDebts   = `DELETE FROM debts WHERE session_id = ?`
	deleteSession = `DELETE FROM sessions WHERE id = ?`
)

// DeleteSession removes the session and everything attached to it and
// reports whether the session existed.
func (q *Queries) DeleteSession(ctx context.Context, id string) (bool, error) {
	if _, err := q.db.ExecContext(ctx, deleteRuns, id); err != nil {
		return false, err
	}
	if _, err := q.db.ExecContext(ctx, deleteDebts, id); err != nil {
		return false, err
	}
	res, err := q.db.ExecContext(ctx, deleteSession, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
