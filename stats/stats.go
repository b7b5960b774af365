// Package stats keeps per-cache-key counters in a SQL database.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Isabellarossi/edgedb/normalize"
)

// Driver names accepted by database/sql.
const (
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

const table = "edgeql_norm_keys"

// DetectDriver infers the database/sql driver name from a DSN.
func DetectDriver(dsn string) (string, error) {
	switch {
	case dsn == "":
		return "", errors.New("stats: empty dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DriverPostgres, nil
	case strings.Contains(dsn, "=") && !strings.Contains(dsn, "/"):
		return DriverPostgres, nil
	}
	if _, err := mysql.ParseDSN(dsn); err == nil {
		return DriverMySQL, nil
	}
	return "", fmt.Errorf("stats: cannot detect driver for dsn %q", dsn)
}

// KeyStat is one row of the statistics table.
type KeyStat struct {
	Fingerprint uint64
	Key         string
	Variables   int
	Hits        int64
	LastSeen    time.Time
}

// Recorder upserts a row per cache key on every Record call.
type Recorder struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// New creates a Recorder from an existing *sql.DB. The schema is not
// created; call EnsureSchema.
func New(db *sql.DB, driver string) *Recorder {
	return &Recorder{db: db, driver: driver, now: time.Now}
}

// Open connects to dsn, detecting the driver, and creates the schema.
func Open(ctx context.Context, dsn string) (*Recorder, error) {
	driver, err := DetectDriver(dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverMySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("stats: parse dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("stats: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("stats: ping: %w", err)
	}

	r := New(db, driver)
	if err := r.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Driver returns the database/sql driver name.
func (r *Recorder) Driver() string {
	return r.driver
}

// EnsureSchema creates the statistics table if it does not exist.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
	fingerprint BIGINT NOT NULL PRIMARY KEY,
	cache_key   TEXT NOT NULL,
	variables   INTEGER NOT NULL,
	hits        BIGINT NOT NULL,
	last_seen   TIMESTAMPTZ NOT NULL
)`
	if r.driver == DriverMySQL {
		ddl = strings.Replace(ddl, "TIMESTAMPTZ", "DATETIME(6)", 1)
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("stats: create table: %w", err)
	}
	return nil
}

// Record counts one normalization of e.Key.
func (r *Recorder) Record(ctx context.Context, e *normalize.Entry) error {
	var q string
	switch r.driver {
	case DriverMySQL:
		q = `INSERT INTO ` + table + ` (fingerprint, cache_key, variables, hits, last_seen)
VALUES (?, ?, ?, 1, ?)
ON DUPLICATE KEY UPDATE hits = hits + 1, last_seen = VALUES(last_seen)`
	default:
		q = `INSERT INTO ` + table + ` (fingerprint, cache_key, variables, hits, last_seen)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (fingerprint) DO UPDATE SET hits = ` + table + `.hits + 1, last_seen = EXCLUDED.last_seen`
	}

	fp := int64(e.Fingerprint()) //nolint:gosec // stored as the two's complement bit pattern
	if _, err := r.db.ExecContext(ctx, q, fp, e.Key, len(e.Variables), r.now().UTC()); err != nil {
		return fmt.Errorf("stats: record: %w", err)
	}
	return nil
}

// Top returns the n most frequently normalized keys.
func (r *Recorder) Top(ctx context.Context, n int) ([]KeyStat, error) {
	q := `SELECT fingerprint, cache_key, variables, hits, last_seen FROM ` + table +
		` ORDER BY hits DESC, last_seen DESC LIMIT ` + placeholder(r.driver, 1)

	rows, err := r.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("stats: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []KeyStat
	for rows.Next() {
		var (
			s  KeyStat
			fp int64
		)
		if err := rows.Scan(&fp, &s.Key, &s.Variables, &s.Hits, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("stats: scan: %w", err)
		}
		s.Fingerprint = uint64(fp) //nolint:gosec // see Record
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: rows: %w", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (r *Recorder) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("stats: close: %w", err)
	}
	return nil
}

func placeholder(driver string, n int) string {
	if driver == DriverMySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}
