// Package storage keeps debt sets and run history for the lifetime of a
// process. The default DSN is an in-memory SQLite database, so nothing
// outlives a restart.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"payoff/internal/core"
	"payoff/internal/log"
)

// DefaultDSN is a shared-cache in-memory database.
const DefaultDSN = "file:payoff?mode=memory&cache=shared"

var ErrSessionNotFound = errors.New("session not found")

// Session is a stored debt set.
type Session struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Debts     core.DebtSet `json:"debts"`
}

// Run is one recorded simulation of a session.
type Run struct {
	ID            int64         `json:"id"`
	SessionID     string        `json:"session_id"`
	Strategy      core.Strategy `json:"strategy"`
	Horizon       int           `json:"horizon"`
	Converged     bool          `json:"converged"`
	Months        int           `json:"months"`
	TotalInterest core.Money    `json:"total_interest"`
	TotalPaid     core.Money    `json:"total_paid"`
	Reason        string        `json:"reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

// NewSQLiteRepository opens dsn, applies migrations and returns the store.
// ":memory:" and "" are mapped to a private shared-cache database so the
// migration connection sees the same schema.
func NewSQLiteRepository(dsn string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	switch {
	case dsn == "" || dsn == ":memory:":
		dsn = fmt.Sprintf("file:payoff-%s?mode=memory&cache=shared", uuid.NewString())
	case !strings.HasPrefix(dsn, "file:"):
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps an in-memory database alive and avoids
	// shared-cache table locks between pooled connections.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("Session store ready", "dsn", dsn)
	return &SQLiteRepository{db: db, queries: New(db), logger: logger, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

// CreateSession stores set under a new session id.
func (r *SQLiteRepository) CreateSession(ctx context.Context, set core.DebtSet) (string, error) {
	id := uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.InsertSession(ctx, id, r.stamp()); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	for i, d := range set.Debts() {
		err := q.InsertDebt(ctx, insertDebtParams{
			SessionID:    id,
			Position:     i,
			ID:           d.ID,
			Name:         d.Name,
			BalanceCents: d.Balance.Cents,
			APR:          d.APR.String(),
			MinimumCents: d.MinimumPayment.Cents,
			PlannedCents: d.PlannedPayment.Cents,
		})
		if err != nil {
			return "", fmt.Errorf("insert debt %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "Session created", log.FieldSessionID, id, log.FieldDebtCount, set.Len())
	return id, nil
}

// LoadSession returns the session and its debts in their original order.
func (r *SQLiteRepository) LoadSession(ctx context.Context, id string) (*Session, error) {
	row, err := r.queries.GetSession(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	rows, err := r.queries.ListDebts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	debts := make([]core.Debt, 0, len(rows))
	for _, d := range rows {
		apr, err := decimal.NewFromString(d.APR)
		if err != nil {
			return nil, fmt.Errorf("debt %s: stored apr %q: %w", d.ID, d.APR, err)
		}
		debts = append(debts, core.Debt{
			ID:             d.ID,
			Name:           d.Name,
			Balance:        core.Money{Cents: d.BalanceCents},
			APR:            apr,
			MinimumPayment: core.Money{Cents: d.MinimumCents},
			PlannedPayment: core.Money{Cents: d.PlannedCents},
		})
	}

	created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	return &Session{ID: row.ID, CreatedAt: created, Debts: core.NewDebtSet(debts)}, nil
}

// RecordRun appends a run summary to the session's history.
func (r *SQLiteRepository) RecordRun(ctx context.Context, sessionID string, horizon int, sum core.Summary) (*Run, error) {
	if _, err := r.queries.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	row := runRow{
		SessionID:          sessionID,
		Strategy:           string(sum.Strategy.Kind),
		ExtraCents:         sum.Strategy.ExtraAmount.Cents,
		TargetID:           sum.Strategy.TargetID,
		Split:              string(sum.Strategy.Split),
		Horizon:            horizon,
		Converged:          sum.Converged,
		Months:             sum.Months,
		TotalInterestCents: sum.TotalInterest.Cents,
		TotalPaidCents:     sum.TotalPaid.Cents,
		CreatedAt:          r.stamp(),
	}
	if sum.NonConvergence != nil {
		row.Reason = sum.NonConvergence.Reason
	}
	id, err := r.queries.InsertRun(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	row.ID = id

	r.logger.DebugContext(ctx, "Run recorded", log.FieldSessionID, sessionID, "run_id", id)
	run := toRun(row)
	return &run, nil
}

// ListRuns returns the session's runs, oldest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, sessionID string) ([]Run, error) {
	if _, err := r.queries.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	rows, err := r.queries.ListRuns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]Run, len(rows))
	for i, row := range rows {
		out[i] = toRun(row)
	}
	return out, nil
}

// DeleteSession removes a session with its debts and runs.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	found, err := r.queries.WithTx(tx).DeleteSession(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.InfoContext(ctx, "Session deleted", log.FieldSessionID, id)
	return nil
}

func toRun(row runRow) Run {
	created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	return Run{
		ID:        row.ID,
		SessionID: row.SessionID,
		Strategy: core.Strategy{
			Kind:        core.StrategyKind(row.Strategy),
			ExtraAmount: core.Money{Cents: row.ExtraCents},
			TargetID:    row.TargetID,
			Split:       core.SplitMode(row.Split),
		},
		Horizon:       row.Horizon,
		Converged:     row.Converged,
		Months:        row.Months,
		TotalInterest: core.Money{Cents: row.TotalInterestCents},
		TotalPaid:     core.Money{Cents: row.TotalPaidCents},
		Reason:        row.Reason,
		CreatedAt:     created,
	}
}
