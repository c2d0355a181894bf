// Package storage provides SQLite-backed persistence for observations and signal alerts.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerim47/quantdesk/internal/analytics"
	"github.com/kerim47/quantdesk/internal/models"
	_ "modernc.org/sqlite"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db           *sql.DB
	maxPerSymbol int
}

// New opens or creates the SQLite database at dbPath. At most maxPerSymbol
// observations are kept per symbol.
// An empty dbPath defaults to $TMPDIR/quantdesk/data.db.
func New(maxPerSymbol int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "quantdesk", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxPerSymbol: maxPerSymbol}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// DB exposes the connection so other repositories can share the file.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			value       REAL NOT NULL,
			observed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_symbol ON observations(symbol, observed_at)`,
		`CREATE TABLE IF NOT EXISTS signal_alerts (
			id             TEXT PRIMARY KEY,
			symbol         TEXT NOT NULL,
			market         TEXT NOT NULL DEFAULT '',
			kline_interval TEXT NOT NULL DEFAULT '',
			kind           TEXT NOT NULL,
			signal         TEXT NOT NULL,
			value          REAL NOT NULL,
			detail         TEXT,
			detected_at    INTEGER NOT NULL,
			notified       INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_alerts_detected_at ON signal_alerts(detected_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddObservation stores o and trims its symbol to the newest maxPerSymbol rows.
func (s *Storage) AddObservation(o *models.Observation) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("invalid observation: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.Exec(`INSERT INTO observations (symbol, value, observed_at) VALUES (?,?,?)`,
		o.Symbol, o.Value, o.ObservedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}

	if s.maxPerSymbol > 0 {
		if _, err = tx.Exec(`
			DELETE FROM observations WHERE symbol = ? AND id NOT IN (
				SELECT id FROM observations WHERE symbol = ? ORDER BY observed_at DESC, id DESC LIMIT ?
			)`, o.Symbol, o.Symbol, s.maxPerSymbol); err != nil {
			return fmt.Errorf("failed to enforce observation cap: %w", err)
		}
	}

	return tx.Commit()
}

// RecentObservations returns up to n newest observations of symbol, oldest first.
func (s *Storage) RecentObservations(symbol string, n int) ([]models.Observation, error) {
	rows, err := s.db.Query(`
		SELECT symbol, value, observed_at FROM (
			SELECT id, symbol, value, observed_at FROM observations
			WHERE symbol = ? ORDER BY observed_at DESC, id DESC LIMIT ?
		) ORDER BY observed_at ASC, id ASC`, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	observations := []models.Observation{}
	for rows.Next() {
		var o models.Observation
		var observedAtNano int64
		if err := rows.Scan(&o.Symbol, &o.Value, &observedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.ObservedAt = time.Unix(0, observedAtNano)
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

// RotateObservations deletes observations older than cutoff and returns how
// many rows were removed.
func (s *Storage) RotateObservations(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM observations WHERE observed_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to rotate observations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// AddAlert stores alert, assigning a new ID when it has none.
func (s *Storage) AddAlert(alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if err := alert.Validate(); err != nil {
		return fmt.Errorf("invalid alert: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO signal_alerts (id, symbol, market, kline_interval, kind, signal, value, detail, detected_at, notified)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		alert.ID, alert.Symbol, alert.Market, alert.Interval, alert.Kind, string(alert.Signal), alert.Value, alert.Detail,
		alert.DetectedAt.UnixNano(), boolToInt(alert.Notified),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to k alerts, newest first.
func (s *Storage) RecentAlerts(k int) ([]models.Alert, error) {
	rows, err := s.db.Query(`
		SELECT id, symbol, market, kline_interval, kind, signal, value, detail, detected_at, notified
		FROM signal_alerts ORDER BY detected_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		var signal string
		var detail sql.NullString
		var detectedAtNano int64
		var notified int

		if err := rows.Scan(&a.ID, &a.Symbol, &a.Market, &a.Interval, &a.Kind, &signal, &a.Value, &detail,
			&detectedAtNano, &notified); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Signal = analytics.Signal(signal)
		a.Detail = detail.String
		a.DetectedAt = time.Unix(0, detectedAtNano)
		a.Notified = notified != 0
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkNotified flags the given alerts as delivered.
func (s *Storage) MarkNotified(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	if _, err := s.db.Exec(`UPDATE signal_alerts SET notified = 1 WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to mark alerts notified: %w", err)
	}
	return nil
}

// RotateAlerts deletes alerts detected before cutoff and returns how many were removed.
func (s *Storage) RotateAlerts(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM signal_alerts WHERE detected_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to rotate alerts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
