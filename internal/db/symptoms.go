package db

import (
	"database/sql"
	"fmt"

	"github.com/sigreer/esesgod/internal/lifecycle"
)

// RecordSymptom stores a fault symptom. It makes DB a lifecycle.SymptomSink.
func (d *DB) RecordSymptom(fs lifecycle.FaultSymptom) error {
	_, err := d.conn.Exec(`
		INSERT INTO fault_symptoms (symptom, component, component_index, detail, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, fs.Symptom.String(), nullString(fs.Component), fs.Index, nullString(fs.Detail), fs.At)
	if err != nil {
		return fmt.Errorf("failed to record symptom: %w", err)
	}
	return nil
}

// GetRecentSymptoms returns the most recent fault symptoms
func (d *DB) GetRecentSymptoms(limit int) ([]*SymptomRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, symptom, component, component_index, detail, timestamp
		FROM fault_symptoms
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	defer rows.Close()

	var out []*SymptomRecord
	for rows.Next() {
		var s SymptomRecord
		var component, detail sql.NullString
		var index sql.NullInt64

		if err := rows.Scan(&s.ID, &s.Symptom, &component, &index, &detail, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan symptom: %w", err)
		}
		s.Component = component.String
		s.Detail = detail.String
		s.ComponentIndex = int(index.Int64)
		out = append(out, &s)
	}

	return out, rows.Err()
}
