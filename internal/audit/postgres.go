package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey serialises appends across bot instances sharing a database.
const advisoryLockKey = int64(2_071_533_019)

// PostgresLog persists the resolution chain in the audit_log table created
// by migrations/001_audit_log.up.sql.
type PostgresLog struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLog creates a PostgresLog backed by pool.
func NewPostgresLog(pool *pgxpool.Pool, logger *zap.Logger) *PostgresLog {
	return &PostgresLog{pool: pool, logger: logger}
}

// Init inserts the genesis entry when the table is empty.
func (l *PostgresLog) Init(ctx context.Context) error {
	g := genesis()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_log (idx, timestamp, ticket, offender, verdict, outcome, data_hash, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (idx) DO NOTHING`,
		g.Index, g.Timestamp, g.Ticket, g.Offender, g.Verdict, g.Outcome, g.DataHash, g.PrevHash, g.Hash,
	)
	if err != nil {
		return fmt.Errorf("insert genesis: %w", err)
	}
	return nil
}

// Append implements Log. The tail read and insert run in one transaction
// holding a transaction-scoped advisory lock.
func (l *PostgresLog) Append(ctx context.Context, res Resolution) (*Entry, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal resolution: %w", err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var prevIdx int
	var prevHash string
	if err := tx.QueryRow(ctx,
		"SELECT idx, hash FROM audit_log ORDER BY idx DESC LIMIT 1",
	).Scan(&prevIdx, &prevHash); err != nil {
		return nil, fmt.Errorf("read audit tail: %w", err)
	}

	entry := &Entry{
		Index:     prevIdx + 1,
		Timestamp: time.Now().UTC(),
		Ticket:    res.Ticket.String(),
		Offender:  res.Offender,
		Verdict:   res.Verdict,
		Outcome:   res.Outcome,
		DataHash:  sha256Sum(payload),
		PrevHash:  prevHash,
	}
	entry.Hash = hashEntry(entry)

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_log (idx, timestamp, ticket, offender, verdict, outcome, data_hash, prev_hash, hash, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.Index, entry.Timestamp, entry.Ticket, entry.Offender,
		entry.Verdict, entry.Outcome, entry.DataHash, entry.PrevHash, entry.Hash, payload,
	); err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit audit tx: %w", err)
	}

	l.logger.Debug("audit entry appended",
		zap.Int("idx", entry.Index),
		zap.String("ticket", entry.Ticket),
		zap.String("outcome", entry.Outcome),
	)
	return entry, nil
}

const selectEntry = `SELECT idx, timestamp, ticket, offender, verdict, outcome, data_hash, prev_hash, hash FROM audit_log`

func scanEntry(row pgx.Row) (*Entry, error) {
	e := &Entry{}
	err := row.Scan(
		&e.Index, &e.Timestamp, &e.Ticket, &e.Offender,
		&e.Verdict, &e.Outcome, &e.DataHash, &e.PrevHash, &e.Hash,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Get implements Log.
func (l *PostgresLog) Get(ctx context.Context, index int) (*Entry, error) {
	e, err := scanEntry(l.pool.QueryRow(ctx, selectEntry+" WHERE idx = $1", index))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	if err != nil {
		return nil, fmt.Errorf("get audit entry %d: %w", index, err)
	}
	return e, nil
}

// Len implements Log.
func (l *PostgresLog) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// Verify implements Log. It streams the whole table in index order.
func (l *PostgresLog) Verify(ctx context.Context) error {
	rows, err := l.pool.Query(ctx, selectEntry+" ORDER BY idx ASC")
	if err != nil {
		return fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var prev *Entry
	for rows.Next() {
		curr, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("scan audit row: %w", err)
		}
		if err := verifyLink(prev, curr); err != nil {
			return err
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Log.
func (l *PostgresLog) Root(ctx context.Context) (string, error) {
	var hash string
	if err := l.pool.QueryRow(ctx,
		"SELECT hash FROM audit_log ORDER BY idx DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get audit root: %w", err)
	}
	return hash, nil
}
