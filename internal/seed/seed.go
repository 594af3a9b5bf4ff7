package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type material struct {
	name       string
	species    string
	multiplier string
}

var defaultMaterials = []material{
	{"Red Oak", "oak", "1"},
	{"White Oak", "oak", "1.2"},
	{"Maple", "maple", "1.1"},
	{"Poplar", "poplar", "0.75"},
	{"Pine", "pine", "0.6"},
}

type baseRule struct {
	boardType  string
	minWidth   any
	basePrice  string
	lengthRate string
	widthRate  string
	mitre      string
}

// Treads wider than 48in need a glued-up blank, hence the separate bracket.
var defaultRules = []baseRule{
	{"tread", nil, "18", "0.35", "0.9", "0"},
	{"tread", 48.0, "28", "0.45", "1.1", "0"},
	{"riser", nil, "6", "0.2", "0.4", "0"},
	{"stringer", nil, "35", "0.25", "1.5", "0"},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the default material catalog and baseline pricing rules. It is
// idempotent: existing rows are left untouched.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, m := range defaultMaterials {
		id, err := ensureMaterial(ctx, tx, m, &stats)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		for _, r := range defaultRules {
			if err := ensureRule(ctx, tx, id, m.multiplier, r, &stats); err != nil {
				_ = tx.Rollback()
				return Stats{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureMaterial(ctx context.Context, tx *sql.Tx, m material, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM materials WHERE name = ?`, m.name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check material %s: %w", m.name, err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO materials (name, species, active)
		VALUES (?, ?, TRUE)
	`, m.name, m.species)
	if err != nil {
		return 0, fmt.Errorf("insert material %s: %w", m.name, err)
	}
	stats.Inserts++
	return result.LastInsertId()
}

func ensureRule(ctx context.Context, tx *sql.Tx, materialID int64, multiplier string, r baseRule, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM pricing_rules
			WHERE board_type = ? AND material_id = ?
			  AND min_width IS ? AND max_width IS NULL
		)
	`, r.boardType, materialID, r.minWidth).Scan(&exists); err != nil {
		return fmt.Errorf("check %s rule for material %d: %w", r.boardType, materialID, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pricing_rules (
			board_type,
			material_id,
			min_width,
			base_price,
			length_charge_rate,
			width_charge_rate,
			mitre_charge,
			material_multiplier,
			notes,
			active
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE)
	`, r.boardType, materialID, r.minWidth, r.basePrice, r.lengthRate, r.widthRate, r.mitre, multiplier, "seed"); err != nil {
		return fmt.Errorf("insert %s rule for material %d: %w", r.boardType, materialID, err)
	}
	stats.Inserts++
	return nil
}
