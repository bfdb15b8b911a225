// Package storage provides SQLite-backed persistence for the seen-pair set
// and the alert history.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pairwatch/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db        *sql.DB
	maxAlerts int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/pairwatch/data.db.
func New(dbPath string, maxAlerts int) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "pairwatch", "data.db")
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
	s := &Storage{db: db, maxAlerts: maxAlerts}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS seen_pairs (
			pair_id    TEXT PRIMARY KEY,
			chain      TEXT NOT NULL,
			first_seen INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id            TEXT PRIMARY KEY,
			pair_id       TEXT NOT NULL,
			chain         TEXT NOT NULL,
			token_address TEXT NOT NULL,
			token_symbol  TEXT,
			title         TEXT NOT NULL,
			score         REAL NOT NULL,
			threshold     REAL NOT NULL,
			liquidity_usd REAL,
			volume24h_usd REAL,
			pair_url      TEXT,
			detected_at   INTEGER NOT NULL,
			delivered     INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_detected_at ON alerts(detected_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_pairs_chain ON seen_pairs(chain)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadSeen returns every persisted pair identifier. Called once at startup
// to seed the dedup ledger.
func (s *Storage) LoadSeen() (map[string]struct{}, error) {
	rows, err := s.db.Query(`SELECT pair_id FROM seen_pairs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen pairs: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen pair: %w", err)
		}
		seen[id] = struct{}{}
	}
	return seen, rows.Err()
}

// SaveSeen persists a batch of newly seen pairs in one transaction.
// Re-inserting an already persisted identifier is a no-op, so the call is
// safe to retry after a failed flush.
func (s *Storage) SaveSeen(pairs []models.SeenPair) error {
	if len(pairs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO seen_pairs (pair_id, chain, first_seen) VALUES (?,?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		if _, err := stmt.Exec(p.PairID, p.Chain, p.FirstSeen.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert seen pair %s: %w", p.PairID, err)
		}
	}
	return tx.Commit()
}

// SeenCount returns how many pair identifiers are persisted.
func (s *Storage) SeenCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM seen_pairs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count seen pairs: %w", err)
	}
	return n, nil
}

// AddAlert persists one alert and enforces the history cap, evicting the
// oldest rows by detection time.
func (s *Storage) AddAlert(a *models.Alert) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts
			(id, pair_id, chain, token_address, token_symbol, title,
			 score, threshold, liquidity_usd, volume24h_usd, pair_url,
			 detected_at, delivered)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.PairID, a.Chain, a.TokenAddress, a.TokenSymbol, a.Title,
		a.Score, a.Threshold, a.LiquidityUSD, a.Volume24hUSD, a.PairURL,
		a.DetectedAt.UnixNano(), boolToInt(a.Delivered),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY detected_at DESC LIMIT ?
		)`, s.maxAlerts); err != nil {
		return fmt.Errorf("failed to enforce alert cap: %w", err)
	}

	return tx.Commit()
}

// RecentAlerts returns up to k alerts, newest first.
func (s *Storage) RecentAlerts(k int) ([]models.Alert, error) {
	rows, err := s.db.Query(`
		SELECT id, pair_id, chain, token_address, token_symbol, title,
		       score, threshold, liquidity_usd, volume24h_usd, pair_url,
		       detected_at, delivered
		FROM alerts ORDER BY detected_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var detectedAtNano int64
		var delivered int

		err := rows.Scan(
			&a.ID, &a.PairID, &a.Chain, &a.TokenAddress, &a.TokenSymbol, &a.Title,
			&a.Score, &a.Threshold, &a.LiquidityUSD, &a.Volume24hUSD, &a.PairURL,
			&detectedAtNano, &delivered,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		a.DetectedAt = time.Unix(0, detectedAtNano)
		a.Delivered = delivered != 0
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
