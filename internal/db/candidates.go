package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marcus/adminui/pkg/console/lookup"
)

// ImportCandidates replaces the candidates of child with cands, keeping
// their order.
func (db *DB) ImportCandidates(ctx context.Context, child string, cands []lookup.Candidate) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidate_properties WHERE child = ?`, child); err != nil {
		return fmt.Errorf("clear properties of %s: %w", child, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE child = ?`, child); err != nil {
		return fmt.Errorf("clear candidates of %s: %w", child, err)
	}

	for i, c := range cands {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO candidates (child, id, label, position) VALUES (?, ?, ?, ?)`,
			child, c.ID, c.Label, i); err != nil {
			return fmt.Errorf("insert candidate %s/%s: %w", child, c.ID, err)
		}
		for name, value := range c.Properties {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO candidate_properties (child, id, name, value) VALUES (?, ?, ?, ?)`,
				child, c.ID, name, value); err != nil {
				return fmt.Errorf("insert property %s of %s/%s: %w", name, child, c.ID, err)
			}
		}
	}
	return tx.Commit()
}

// Candidates returns the candidates of childFieldName in import order. It
// makes DB a lookup.Source.
func (db *DB) Candidates(ctx context.Context, childFieldName string) ([]lookup.Candidate, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.label, p.name, p.value
		FROM candidates c
		LEFT JOIN candidate_properties p ON p.child = c.child AND p.id = c.id
		WHERE c.child = ?
		ORDER BY c.position, c.id, p.name`, childFieldName)
	if err != nil {
		return nil, fmt.Errorf("query candidates of %s: %w", childFieldName, err)
	}
	defer rows.Close()

	var out []lookup.Candidate
	for rows.Next() {
		var id, label string
		var name, value sql.NullString
		if err := rows.Scan(&id, &label, &name, &value); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, lookup.Candidate{ID: id, Label: label})
		}
		if name.Valid {
			last := &out[len(out)-1]
			if last.Properties == nil {
				last.Properties = make(map[string]string)
			}
			last.Properties[name.String] = value.String
		}
	}
	return out, rows.Err()
}

// ChildCount is the number of candidates stored for one field.
type ChildCount struct {
	Child string
	Count int
}

// Children lists the fields that have candidates.
func (db *DB) Children(ctx context.Context) ([]ChildCount, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT child, COUNT(*) FROM candidates GROUP BY child ORDER BY child`)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var out []ChildCount
	for rows.Next() {
		var c ChildCount
		if err := rows.Scan(&c.Child, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
