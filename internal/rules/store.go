// Package rules persists stair pricing rules and the material catalog in SQLite.
package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/stairworks/internal/pricing"
)

// ErrNotFound is returned when a rule or material id does not exist.
var ErrNotFound = errors.New("not found")

// Record is a stored rule together with its admin state.
type Record struct {
	pricing.Rule
	Active bool
}

// Material is one entry of the material catalog.
type Material struct {
	ID      int64
	Name    string
	Species string
	Active  bool
}

// Store reads and writes pricing rules. It implements pricing.RuleStore.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const ruleColumns = `
	id, board_type, material_id, min_width, max_width,
	base_price, length_charge_rate, width_charge_rate, mitre_charge, material_multiplier,
	notes, active`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec      Record
		minWidth decimal.NullDecimal
		maxWidth decimal.NullDecimal
		board    string
	)
	err := row.Scan(
		&rec.ID,
		&board,
		&rec.MaterialID,
		&minWidth,
		&maxWidth,
		&rec.BasePrice,
		&rec.LengthChargeRate,
		&rec.WidthChargeRate,
		&rec.MitreCharge,
		&rec.MaterialMultiplier,
		&rec.Notes,
		&rec.Active,
	)
	if err != nil {
		return Record{}, err
	}
	rec.BoardType = pricing.BoardType(board)
	if minWidth.Valid {
		rec.MinWidth = &minWidth.Decimal
	}
	if maxWidth.Valid {
		rec.MaxWidth = &maxWidth.Decimal
	}
	return rec, nil
}

// Rules returns the active rules for boardType and materialID whose width
// bracket covers width.
func (s *Store) Rules(ctx context.Context, boardType pricing.BoardType, materialID int64, width decimal.Decimal) ([]pricing.Rule, error) {
	w := width.InexactFloat64()
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+ruleColumns+`
		FROM pricing_rules
		WHERE board_type = ? AND material_id = ? AND active = TRUE
		  AND (min_width IS NULL OR min_width <= ?)
		  AND (max_width IS NULL OR ? <= max_width)
		ORDER BY id
	`, string(boardType), materialID, w, w)
	if err != nil {
		return nil, fmt.Errorf("%w: query pricing rules: %w", pricing.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []pricing.Rule
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan pricing rule: %w", pricing.ErrStoreUnavailable, err)
		}
		out = append(out, rec.Rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pricing rules: %w", pricing.ErrStoreUnavailable, err)
	}
	return out, nil
}

// List returns every rule, active or not, ordered for display.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+ruleColumns+`
		FROM pricing_rules
		ORDER BY board_type, material_id, COALESCE(min_width, 0), id
	`)
	if err != nil {
		return nil, fmt.Errorf("query pricing rules: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing rules: %w", err)
	}
	return records, nil
}

// Get returns a single rule by id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+ruleColumns+` FROM pricing_rules WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("pricing rule %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query pricing rule %d: %w", id, err)
	}
	return rec, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Upsert inserts rec when its ID is zero and updates it otherwise.
func (s *Store) Upsert(ctx context.Context, rec Record) (int64, error) {
	return upsert(ctx, s.db, rec)
}

func upsert(ctx context.Context, ex execer, rec Record) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("invalid pricing rule: %w", err)
	}
	switch rec.BoardType {
	case pricing.BoardTread, pricing.BoardRiser, pricing.BoardStringer:
	default:
		return 0, fmt.Errorf("invalid pricing rule: unknown board type %q", rec.BoardType)
	}

	args := []any{
		string(rec.BoardType),
		rec.MaterialID,
		nullDecimal(rec.MinWidth),
		nullDecimal(rec.MaxWidth),
		rec.BasePrice.String(),
		rec.LengthChargeRate.String(),
		rec.WidthChargeRate.String(),
		rec.MitreCharge.String(),
		rec.MaterialMultiplier.String(),
		rec.Notes,
		rec.Active,
	}

	if rec.ID == 0 {
		result, err := ex.ExecContext(ctx, `
			INSERT INTO pricing_rules (
				board_type, material_id, min_width, max_width,
				base_price, length_charge_rate, width_charge_rate, mitre_charge, material_multiplier,
				notes, active
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args...)
		if err != nil {
			return 0, fmt.Errorf("insert pricing rule: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("read pricing rule id: %w", err)
		}
		return id, nil
	}

	result, err := ex.ExecContext(ctx, `
		UPDATE pricing_rules
		SET
			board_type = ?,
			material_id = ?,
			min_width = ?,
			max_width = ?,
			base_price = ?,
			length_charge_rate = ?,
			width_charge_rate = ?,
			mitre_charge = ?,
			material_multiplier = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, append(args, rec.ID)...)
	if err != nil {
		return 0, fmt.Errorf("update pricing rule %d: %w", rec.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update pricing rule %d: %w", rec.ID, err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("pricing rule %d: %w", rec.ID, ErrNotFound)
	}
	return rec.ID, nil
}

// ImportStats counts the outcome of an Import.
type ImportStats struct {
	Inserts int
	Updates int
}

// Import upserts all records in a single transaction; one bad record rolls back the batch.
func (s *Store) Import(ctx context.Context, records []Record) (ImportStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, fmt.Errorf("begin import transaction: %w", err)
	}

	stats := ImportStats{}
	for i, rec := range records {
		if _, err := upsert(ctx, tx, rec); err != nil {
			_ = tx.Rollback()
			return ImportStats{}, fmt.Errorf("record %d: %w", i+1, err)
		}
		if rec.ID == 0 {
			stats.Inserts++
		} else {
			stats.Updates++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, fmt.Errorf("commit import transaction: %w", err)
	}
	return stats, nil
}

// SetActive toggles whether a rule takes part in lookups.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE pricing_rules SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	if err != nil {
		return fmt.Errorf("update pricing rule %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pricing rule %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("pricing rule %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListMaterials returns the material catalog ordered by name.
func (s *Store) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, species, active
		FROM materials
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Species, &m.Active); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}

// CreateMaterial adds an active material and returns its id.
func (s *Store) CreateMaterial(ctx context.Context, name, species string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, species, active) VALUES (?, ?, TRUE)
	`, name, species)
	if err != nil {
		return 0, fmt.Errorf("insert material: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read material id: %w", err)
	}
	return id, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}
