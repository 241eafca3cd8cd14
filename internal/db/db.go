package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/esesgod/esesgod.db"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	migrations := []string{
		migrationV1,
		migrationV2,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (d *DB) SchemaVersion() (int, error) {
	var v int
	err := d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

// migrationV1 creates the decode history schema
const migrationV1 = `
-- One row per status page decode
CREATE TABLE IF NOT EXISTS decode_passes (
    id TEXT PRIMARY KEY,
    enclosure_id TEXT NOT NULL,
    device TEXT,
    gen_code INTEGER,
    started TIMESTAMP NOT NULL,
    duration_ns INTEGER,
    changes INTEGER DEFAULT 0,
    insert_changes INTEGER DEFAULT 0,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_passes_started ON decode_passes(started);
CREATE INDEX IF NOT EXISTS idx_passes_device ON decode_passes(device);

-- Attribute changes observed during a pass
CREATE TABLE IF NOT EXISTS component_transitions (
    id INTEGER PRIMARY KEY,
    pass_id TEXT NOT NULL REFERENCES decode_passes(id) ON DELETE CASCADE,
    component_type TEXT NOT NULL,
    component_index INTEGER NOT NULL,
    attribute TEXT NOT NULL,
    old_value TEXT,
    new_value TEXT,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transitions_pass ON component_transitions(pass_id);
CREATE INDEX IF NOT EXISTS idx_transitions_component ON component_transitions(component_type, component_index);
CREATE INDEX IF NOT EXISTS idx_transitions_time ON component_transitions(timestamp);

-- Fault symptoms raised by the decoder and retry policy
CREATE TABLE IF NOT EXISTS fault_symptoms (
    id INTEGER PRIMARY KEY,
    symptom TEXT NOT NULL,
    component TEXT,
    component_index INTEGER,
    detail TEXT,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_symptoms_time ON fault_symptoms(timestamp);
`

// migrationV2 adds alerts derived from transitions
const migrationV2 = `
CREATE TABLE IF NOT EXISTS alerts (
    id INTEGER PRIMARY KEY,
    severity TEXT NOT NULL,
    category TEXT NOT NULL,
    message TEXT NOT NULL,
    device TEXT,
    component_type TEXT,
    component_index INTEGER,
    details TEXT,
    acknowledged INTEGER DEFAULT 0,
    ack_timestamp TIMESTAMP,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_alerts_unacked ON alerts(acknowledged) WHERE acknowledged = 0;
CREATE INDEX IF NOT EXISTS idx_alerts_time ON alerts(timestamp);
CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity);
`

// PassRecord is a stored decode pass
type PassRecord struct {
	ID            string        `json:"id"`
	EnclosureID   string        `json:"enclosure_id"`
	Device        string        `json:"device,omitempty"`
	GenCode       uint32        `json:"gen_code"`
	Started       time.Time     `json:"started"`
	Duration      time.Duration `json:"duration"`
	Changes       int           `json:"changes"`
	InsertChanges uint64        `json:"insert_changes,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Transition is one attribute change of one component
type Transition struct {
	ID             int64     `json:"id"`
	PassID         string    `json:"pass_id"`
	ComponentType  string    `json:"component_type"`
	ComponentIndex int       `json:"component_index"`
	Attribute      string    `json:"attribute"`
	OldValue       string    `json:"old_value"`
	NewValue       string    `json:"new_value"`
	Timestamp      time.Time `json:"timestamp"`
}

// SymptomRecord is a stored fault symptom
type SymptomRecord struct {
	ID             int64     `json:"id"`
	Symptom        string    `json:"symptom"`
	Component      string    `json:"component,omitempty"`
	ComponentIndex int       `json:"component_index"`
	Detail         string    `json:"detail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Alert represents an alert record
type Alert struct {
	ID             int64      `json:"id"`
	Severity       string     `json:"severity"`
	Category       string     `json:"category"`
	Message        string     `json:"message"`
	Device         string     `json:"device,omitempty"`
	ComponentType  string     `json:"component_type,omitempty"`
	ComponentIndex *int       `json:"component_index,omitempty"`
	Details        string     `json:"details,omitempty"`
	Acknowledged   bool       `json:"acknowledged"`
	AckTimestamp   *time.Time `json:"ack_timestamp,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Alert severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert categories
const (
	CategoryComponentFaulted = "component_faulted"
	CategoryComponentRemoved = "component_removed"
	CategoryTemperature      = "temperature"
	CategoryDecodeFailed     = "decode_failed"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
