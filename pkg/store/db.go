// Package store is the relational persistence layer: nodes, their probe
// samples, and their status-change history, backed by sqlite.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/last-emo-boy/net-monitor/pkg/config"
)

// DB wraps a sqlx connection to the monitor's sqlite database.
type DB struct {
	*sqlx.DB
}

// Open connects to the database described by cfg, creating its parent
// directory and schema as needed.
func Open(cfg *config.StoreConfig) (*DB, error) {
	if cfg.Path == ":memory:" {
		conn, err := sqlx.Connect("sqlite", ":memory:?_pragma=foreign_keys(1)")
		if err != nil {
			return nil, fmt.Errorf("store: connect in-memory database: %w", err)
		}
		db := &DB{DB: conn}
		if err := db.initSchema(); err != nil {
			return nil, err
		}
		return db, nil
	}

	dataDir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}

	connStr := cfg.Path
	if cfg.WALMode {
		connStr += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	} else {
		connStr += "?_pragma=foreign_keys(1)"
	}

	conn, err := sqlx.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 10
	}
	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(maxConns)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	db := &DB{DB: conn}
	if err := db.initSchema(); err != nil {
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	monitor_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Offline',
	last_check TEXT,
	response_time INTEGER,
	monitoring_interval INTEGER NOT NULL,
	retry_interval INTEGER NOT NULL DEFAULT 15,
	max_check_attempts INTEGER NOT NULL DEFAULT 3,
	consecutive_failures INTEGER NOT NULL DEFAULT 0,
	credential_id TEXT,
	display_order INTEGER NOT NULL DEFAULT 0,
	http_url TEXT,
	http_expected_status INTEGER,
	ping_host TEXT,
	ping_count INTEGER,
	ping_timeout INTEGER,
	tcp_host TEXT,
	tcp_port INTEGER,
	tcp_timeout INTEGER
);

CREATE TABLE IF NOT EXISTS probe_samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	timestamp TEXT NOT NULL,
	status TEXT NOT NULL,
	response_time INTEGER,
	details TEXT
);

CREATE TABLE IF NOT EXISTS status_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	changed_at TEXT NOT NULL,
	duration_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_probe_samples_node_id ON probe_samples(node_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_status_changes_node_id ON status_changes(node_id, changed_at);
`

func (db *DB) initSchema() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("store: initialize schema: %w", err)
	}
	return nil
}

// HealthCheck verifies the connection is alive.
func (db *DB) HealthCheck() error {
	var result int
	if err := db.Get(&result, "SELECT 1"); err != nil {
		return fmt.Errorf("store: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// NodeRepo returns a repository for node CRUD and listing.
func (db *DB) NodeRepo() *NodeRepo {
	return &NodeRepo{db: db}
}

// SampleRepo returns a repository for probe samples.
func (db *DB) SampleRepo() *SampleRepo {
	return &SampleRepo{db: db}
}

// StatusChangeRepo returns a repository for status-change events.
func (db *DB) StatusChangeRepo() *StatusChangeRepo {
	return &StatusChangeRepo{db: db}
}

const rfc3339 = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(rfc3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(rfc3339, s)
}
