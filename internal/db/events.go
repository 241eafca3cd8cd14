package db

import (
	"database/sql"
	"fmt"
)

// GetPassTransitions returns the changes recorded for one pass
func (d *DB) GetPassTransitions(passID string) ([]*Transition, error) {
	rows, err := d.conn.Query(`
		SELECT id, pass_id, component_type, component_index, attribute, old_value, new_value, timestamp
		FROM component_transitions
		WHERE pass_id = ?
		ORDER BY id
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pass transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// GetRecentTransitions returns the most recent transitions across all components
func (d *DB) GetRecentTransitions(limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, pass_id, component_type, component_index, attribute, old_value, new_value, timestamp
		FROM component_transitions
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// GetComponentTransitions returns the history of one component
func (d *DB) GetComponentTransitions(componentType string, index, limit int) ([]*Transition, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, pass_id, component_type, component_index, attribute, old_value, new_value, timestamp
		FROM component_transitions
		WHERE component_type = ? AND component_index = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, componentType, index, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query component transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

func scanTransitions(rows *sql.Rows) ([]*Transition, error) {
	var out []*Transition
	for rows.Next() {
		var t Transition
		var oldValue, newValue sql.NullString

		err := rows.Scan(&t.ID, &t.PassID, &t.ComponentType, &t.ComponentIndex,
			&t.Attribute, &oldValue, &newValue, &t.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		t.OldValue = oldValue.String
		t.NewValue = newValue.String
		out = append(out, &t)
	}

	return out, rows.Err()
}
