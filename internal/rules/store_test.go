package rules

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/stairworks/internal/db"
	"github.com/Simplici0/stairworks/internal/migrations"
	"github.com/Simplici0/stairworks/internal/pricing"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "rules-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewStore(database), database
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func mustMaterial(t *testing.T, store *Store, name string) int64 {
	t.Helper()
	id, err := store.CreateMaterial(context.Background(), name, name)
	if err != nil {
		t.Fatalf("create material %s: %v", name, err)
	}
	return id
}

func mustUpsert(t *testing.T, store *Store, rec Record) int64 {
	t.Helper()
	id, err := store.Upsert(context.Background(), rec)
	if err != nil {
		t.Fatalf("upsert rule: %v", err)
	}
	return id
}

func TestRulesFiltersByBracketAndActive(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	oak := mustMaterial(t, store, "Red Oak")

	anyWidth := mustUpsert(t, store, Record{Active: true, Rule: pricing.Rule{
		BoardType: pricing.BoardTread, MaterialID: oak, BasePrice: dec("20"), MaterialMultiplier: dec("1"),
	}})
	narrow := mustUpsert(t, store, Record{Active: true, Rule: pricing.Rule{
		BoardType: pricing.BoardTread, MaterialID: oak, MinWidth: decPtr("30"), MaxWidth: decPtr("42"),
		BasePrice: dec("22.5"), LengthChargeRate: dec("0.35"), MaterialMultiplier: dec("1.15"),
	}})
	mustUpsert(t, store, Record{Active: false, Rule: pricing.Rule{
		BoardType: pricing.BoardTread, MaterialID: oak, MinWidth: decPtr("36"), BasePrice: dec("1"), MaterialMultiplier: dec("1"),
	}})

	got, err := store.Rules(ctx, pricing.BoardTread, oak, dec("42"))
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 2 || got[0].ID != anyWidth || got[1].ID != narrow {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if got[1].MinWidth == nil || !got[1].MinWidth.Equal(dec("30")) || !got[1].MaterialMultiplier.Equal(dec("1.15")) {
		t.Fatalf("rule did not round-trip: %+v", got[1])
	}
	if got[0].MinWidth != nil || got[0].MaxWidth != nil {
		t.Fatalf("expected open-ended bracket, got %+v", got[0])
	}

	got, err = store.Rules(ctx, pricing.BoardTread, oak, dec("48"))
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 1 || got[0].ID != anyWidth {
		t.Fatalf("expected only the any-width rule above the bracket, got %+v", got)
	}

	got, err = store.Rules(ctx, pricing.BoardRiser, oak, dec("42"))
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no riser rules, got %+v", got)
	}
}

func TestStoreBacksCalculator(t *testing.T) {
	store, _ := newTestStore(t)
	oak := mustMaterial(t, store, "White Oak")

	mustUpsert(t, store, Record{Active: true, Rule: pricing.Rule{
		BoardType: pricing.BoardTread, MaterialID: oak, BasePrice: dec("10"), LengthChargeRate: dec("2"),
		WidthChargeRate: dec("3"), MaterialMultiplier: dec("1"),
	}})

	order := pricing.Order{
		FloorToFloor:  dec("21"),
		NumRisers:     3,
		Treads:        []pricing.TreadSpec{{RiserNumber: 1, Type: pricing.TreadFloating, StairWidth: dec("40.75")}},
		RoughCutWidth: dec("10"),
		NoseSize:      dec("1.25"),
		Stringers:     pricing.PerSideStringers{},
	}
	order.TreadMaterialID = oak

	got, err := pricing.NewCalculator(store).Calculate(context.Background(), order)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(got.Lines) != 1 || !got.Total.Equal(dec("125.25")) {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}

func TestRulesReportsStoreUnavailable(t *testing.T) {
	store, database := newTestStore(t)
	_ = database.Close()

	_, err := store.Rules(context.Background(), pricing.BoardTread, 1, dec("36"))
	if !errors.Is(err, pricing.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestUpsertRejectsInvalidRules(t *testing.T) {
	store, _ := newTestStore(t)
	oak := mustMaterial(t, store, "Maple")

	bad := []Record{
		{Rule: pricing.Rule{BoardType: "newel", MaterialID: oak, MaterialMultiplier: dec("1")}},
		{Rule: pricing.Rule{BoardType: pricing.BoardRiser, MaterialID: oak, BasePrice: dec("-1"), MaterialMultiplier: dec("1")}},
		{Rule: pricing.Rule{BoardType: pricing.BoardRiser, MaterialID: oak, MinWidth: decPtr("40"), MaxWidth: decPtr("30"), MaterialMultiplier: dec("1")}},
	}
	for i, rec := range bad {
		if _, err := store.Upsert(context.Background(), rec); err == nil {
			t.Fatalf("record %d: expected validation error", i)
		}
	}

	if _, err := store.Upsert(context.Background(), Record{Rule: pricing.Rule{ID: 999, BoardType: pricing.BoardRiser, MaterialID: oak, MaterialMultiplier: dec("1")}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing rule, got %v", err)
	}
}

func TestImportRollsBackOnBadRecord(t *testing.T) {
	store, _ := newTestStore(t)
	oak := mustMaterial(t, store, "Hickory")

	records := []Record{
		{Active: true, Rule: pricing.Rule{BoardType: pricing.BoardRiser, MaterialID: oak, BasePrice: dec("4"), MaterialMultiplier: dec("1")}},
		{Active: true, Rule: pricing.Rule{BoardType: pricing.BoardRiser, MaterialID: oak + 100, BasePrice: dec("4"), MaterialMultiplier: dec("1")}},
	}
	if _, err := store.Import(context.Background(), records); err == nil {
		t.Fatalf("expected foreign key failure")
	}

	all, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected rollback to leave no rules, got %d", len(all))
	}

	stats, err := store.Import(context.Background(), records[:1])
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Inserts != 1 || stats.Updates != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestSetActiveHidesRuleFromLookups(t *testing.T) {
	store, _ := newTestStore(t)
	oak := mustMaterial(t, store, "Walnut")
	id := mustUpsert(t, store, Record{Active: true, Rule: pricing.Rule{BoardType: pricing.BoardStringer, MaterialID: oak, MaterialMultiplier: dec("1")}})

	if err := store.SetActive(context.Background(), id, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, err := store.Rules(context.Background(), pricing.BoardStringer, oak, dec("9.25"))
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected inactive rule to be hidden, got %+v", got)
	}

	if err := store.SetActive(context.Background(), id+1, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
