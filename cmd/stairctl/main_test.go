package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/stairworks/internal/pricing"
	"github.com/Simplici0/stairworks/internal/rules"
)

const orderJSON = `{
	"floorToFloor": "112",
	"numRisers": 14,
	"treads": [{"riserNumber": 1, "type": "box", "stairWidth": "42"}],
	"treadMaterialId": 5,
	"riserMaterialId": 4,
	"stringerMaterialId": 7,
	"roughCutWidth": "10",
	"noseSize": "1.25",
	"stringerType": "1x9.25_Poplar",
	"individualStringers": {
		"left": {"width": "9.25", "thickness": "1", "materialId": 7},
		"right": {"width": "9.25", "thickness": "1", "materialId": 7}
	},
	"includeLandingTread": true
}`

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	if err := app.Run(append([]string{"stairctl"}, args...)); err != nil {
		t.Fatalf("stairctl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestPriceFromWorkbook(t *testing.T) {
	buf, err := rules.ExportXLSX([]rules.Record{
		{Active: true, Rule: pricing.Rule{ID: 1, BoardType: pricing.BoardTread, MaterialID: 5, BasePrice: dec("20"), LengthChargeRate: dec("0.5"), WidthChargeRate: dec("1"), MaterialMultiplier: dec("1")}},
		{Active: true, Rule: pricing.Rule{ID: 2, BoardType: pricing.BoardRiser, MaterialID: 4, BasePrice: dec("5"), LengthChargeRate: dec("0.25"), WidthChargeRate: dec("0.5"), MaterialMultiplier: dec("1")}},
		{Active: true, Rule: pricing.Rule{ID: 3, BoardType: pricing.BoardStringer, MaterialID: 7, BasePrice: dec("40"), LengthChargeRate: dec("0.3"), WidthChargeRate: dec("2"), MaterialMultiplier: dec("1.1")}},
		{Active: false, Rule: pricing.Rule{ID: 4, BoardType: pricing.BoardTread, MaterialID: 5, BasePrice: dec("999"), MaterialMultiplier: dec("1")}},
	})
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	workbook := writeFile(t, "rules.xlsx", buf.Bytes())
	order := writeFile(t, "order.json", []byte(orderJSON))

	out := run(t, "price", "--rules", workbook, order)

	var b pricing.Breakdown
	if err := json.Unmarshal([]byte(out), &b); err != nil {
		t.Fatalf("decode breakdown: %v\n%s", err, out)
	}
	if len(b.Lines) != 5 || !b.Total.Equal(dec("358.06")) {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestSeedExportImportAgainstDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stairctl.db")

	if out := run(t, "--db", dbPath, "migrate"); !strings.Contains(out, "version 3") {
		t.Fatalf("unexpected migrate output: %q", out)
	}
	if out := run(t, "--db", dbPath, "seed"); !strings.Contains(out, "seed inserted 25 rows") {
		t.Fatalf("unexpected seed output: %q", out)
	}

	workbook := filepath.Join(t.TempDir(), "export.xlsx")
	if out := run(t, "--db", dbPath, "rules", "export", workbook); !strings.Contains(out, "exported 20 rules") {
		t.Fatalf("unexpected export output: %q", out)
	}
	if out := run(t, "--db", dbPath, "rules", "import", workbook); !strings.Contains(out, "0 inserted, 20 updated") {
		t.Fatalf("unexpected import output: %q", out)
	}
}

func TestPriceRequiresOrderFile(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	if err := app.Run([]string{"stairctl", "price"}); err == nil {
		t.Fatal("expected error without an order file")
	}
}
