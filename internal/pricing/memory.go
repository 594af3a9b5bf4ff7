package pricing

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// MemoryRules is an in-memory RuleStore.
type MemoryRules struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewMemoryRules returns a store holding a copy of rules.
func NewMemoryRules(rules ...Rule) *MemoryRules {
	m := &MemoryRules{}
	m.Add(rules...)
	return m
}

// Add appends rules to the store.
func (m *MemoryRules) Add(rules ...Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rules...)
}

// Rules returns the rules for boardType and materialID whose bracket covers width.
func (m *MemoryRules) Rules(_ context.Context, boardType BoardType, materialID int64, width decimal.Decimal) ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Rule
	for _, r := range m.rules {
		if r.BoardType == boardType && r.MaterialID == materialID && r.Covers(width) {
			out = append(out, r)
		}
	}
	return out, nil
}
