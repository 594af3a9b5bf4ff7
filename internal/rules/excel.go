package rules

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/stairworks/internal/pricing"
)

const sheetName = "Rules"

var sheetHeader = []any{
	"id",
	"board_type",
	"material_id",
	"min_width",
	"max_width",
	"base_price",
	"length_charge_rate",
	"width_charge_rate",
	"mitre_charge",
	"material_multiplier",
	"active",
	"notes",
}

// ExportXLSX writes records to a workbook with one rule per row. Rows keep
// their id so that an edited file re-imports as updates. Widths and money
// are written as exact decimal text.
func ExportXLSX(records []Record) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("name rules sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &sheetHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			rec.ID,
			string(rec.BoardType),
			rec.MaterialID,
			optionalText(rec.MinWidth),
			optionalText(rec.MaxWidth),
			rec.BasePrice.String(),
			rec.LengthChargeRate.String(),
			rec.WidthChargeRate.String(),
			rec.MitreCharge.String(),
			rec.MaterialMultiplier.String(),
			rec.Active,
			rec.Notes,
		}
		if err := f.SetSheetRow(sheetName, axis, &row); err != nil {
			return nil, fmt.Errorf("write rule %d: %w", rec.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// ParseXLSX reads rules from the active sheet of a workbook in the ExportXLSX
// layout. An empty id imports a new rule; empty width bounds are open-ended.
func ParseXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("workbook has no header row")
	}
	if len(rows[0]) < 10 || !strings.EqualFold(strings.TrimSpace(rows[0][1]), "board_type") {
		return nil, fmt.Errorf("unexpected header: want %v", sheetHeader)
	}

	records := make([]Record, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (Record, error) {
	rec := Record{Active: true}
	var err error

	if v := cell(row, 0); v != "" {
		if rec.ID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Record{}, fmt.Errorf("id %q is not an integer", v)
		}
	}

	rec.BoardType = pricing.BoardType(strings.ToLower(cell(row, 1)))

	if rec.MaterialID, err = strconv.ParseInt(cell(row, 2), 10, 64); err != nil {
		return Record{}, fmt.Errorf("material_id %q is not an integer", cell(row, 2))
	}

	if rec.MinWidth, err = optionalDecimal(row, 3, "min_width"); err != nil {
		return Record{}, err
	}
	if rec.MaxWidth, err = optionalDecimal(row, 4, "max_width"); err != nil {
		return Record{}, err
	}

	money := []struct {
		col  int
		name string
		dst  *decimal.Decimal
		def  string
	}{
		{5, "base_price", &rec.BasePrice, "0"},
		{6, "length_charge_rate", &rec.LengthChargeRate, "0"},
		{7, "width_charge_rate", &rec.WidthChargeRate, "0"},
		{8, "mitre_charge", &rec.MitreCharge, "0"},
		{9, "material_multiplier", &rec.MaterialMultiplier, "1"},
	}
	for _, m := range money {
		v := cell(row, m.col)
		if v == "" {
			v = m.def
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Record{}, fmt.Errorf("%s %q is not a number", m.name, v)
		}
		*m.dst = d
	}

	if v := cell(row, 10); v != "" {
		if rec.Active, err = strconv.ParseBool(v); err != nil {
			return Record{}, fmt.Errorf("active %q is not a boolean", v)
		}
	}
	if len(row) > 11 {
		rec.Notes = strings.TrimSpace(row[11])
	}

	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// cell returns a trimmed numeric-ish cell value with decimal commas
// normalised; GetRows drops trailing empty cells.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.ReplaceAll(strings.TrimSpace(row[i]), ",", ".")
}

func optionalDecimal(row []string, col int, name string) (*decimal.Decimal, error) {
	v := cell(row, col)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not a number", name, v)
	}
	return &d, nil
}

// optionalText writes decimals as text so every digit survives a round trip.
func optionalText(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
