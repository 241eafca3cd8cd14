package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/eses"
)

// RecordPass stores a decode pass with its attribute changes and raises
// alerts for faults, removals and over-temperature.
func (d *DB) RecordPass(res *eses.PassResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin pass: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO decode_passes (id, enclosure_id, device, gen_code, started, duration_ns, changes, insert_changes, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.ID.String(), res.Enclosure.String(), nullString(res.Device), int64(res.GenCode),
		res.Started, int64(res.Duration), len(res.Changes), int64(res.InsertChanges), nullString(res.Error))
	if err != nil {
		return fmt.Errorf("failed to record pass: %w", err)
	}

	var alerts []*Alert
	if res.Error != "" {
		alerts = append(alerts, &Alert{
			Severity: SeverityWarning,
			Category: CategoryDecodeFailed,
			Message:  fmt.Sprintf("status page decode failed: %s", res.Error),
			Device:   res.Device,
		})
	}

	for _, c := range res.Changes {
		// refreshed on every good pass
		if c.Attr == edal.LastGoodStatusTime.String() {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO component_transitions (pass_id, component_type, component_index, attribute, old_value, new_value, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, res.ID.String(), c.Type, c.Index, c.Attr, encodeValue(c.Old), encodeValue(c.New), res.Started)
		if err != nil {
			return fmt.Errorf("failed to record transition: %w", err)
		}
		if a := alertFor(c); a != nil {
			a.Device = res.Device
			alerts = append(alerts, a)
		}
	}

	for _, a := range alerts {
		if err := createAlert(tx, a); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func encodeValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// alertFor maps a component transition to an alert, or nil.
func alertFor(c edal.Change) *Alert {
	idx := c.Index
	set := c.New == true
	a := &Alert{ComponentType: c.Type, ComponentIndex: &idx}

	switch c.Attr {
	case edal.Faulted.String():
		if !set {
			return nil
		}
		a.Severity = SeverityCritical
		a.Category = CategoryComponentFaulted
		a.Message = fmt.Sprintf("%s %d faulted", c.Type, c.Index)
	case edal.Inserted.String():
		if set || c.Old != true {
			return nil
		}
		a.Severity = SeverityWarning
		a.Category = CategoryComponentRemoved
		a.Message = fmt.Sprintf("%s %d removed", c.Type, c.Index)
	case edal.OverTempFailure.String():
		if !set {
			return nil
		}
		a.Severity = SeverityCritical
		a.Category = CategoryTemperature
		a.Message = fmt.Sprintf("%s %d over temperature failure", c.Type, c.Index)
	case edal.OverTempWarning.String():
		if !set {
			return nil
		}
		a.Severity = SeverityWarning
		a.Category = CategoryTemperature
		a.Message = fmt.Sprintf("%s %d over temperature warning", c.Type, c.Index)
	default:
		return nil
	}
	return a
}

// GetRecentPasses returns the most recent decode passes
func (d *DB) GetRecentPasses(limit int) ([]*PassRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, enclosure_id, device, gen_code, started, duration_ns, changes, insert_changes, error
		FROM decode_passes
		ORDER BY started DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	var passes []*PassRecord
	for rows.Next() {
		var p PassRecord
		var device, errText sql.NullString
		var genCode, durationNS, insertChanges int64

		err := rows.Scan(&p.ID, &p.EnclosureID, &device, &genCode, &p.Started,
			&durationNS, &p.Changes, &insertChanges, &errText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		p.Device = device.String
		p.Error = errText.String
		p.GenCode = uint32(genCode)
		p.InsertChanges = uint64(insertChanges)
		p.Duration = time.Duration(durationNS)
		passes = append(passes, &p)
	}

	return passes, rows.Err()
}
