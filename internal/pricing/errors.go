package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidOrder marks structural problems in the order itself.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInvalidDimension is an ErrInvalidOrder raised for negative or missing geometry.
	ErrInvalidDimension = fmt.Errorf("%w: invalid dimension", ErrInvalidOrder)
	// ErrRuleNotFound means no single pricing rule matches a lookup.
	ErrRuleNotFound = errors.New("pricing rule not found")
	// ErrUnknownSpecialPart means a special part kind has no pricing definition.
	ErrUnknownSpecialPart = errors.New("unknown special part")
	// ErrStoreUnavailable wraps failures of the rule store itself.
	ErrStoreUnavailable = errors.New("pricing rule store unavailable")
)

// RuleNotFoundError describes the lookup that failed to resolve to exactly one rule.
// Candidates is zero when nothing matched and greater than one when brackets overlap.
type RuleNotFoundError struct {
	BoardType  BoardType
	MaterialID int64
	Width      decimal.Decimal
	Candidates int
}

func (e *RuleNotFoundError) Error() string {
	if e.Candidates > 1 {
		return fmt.Sprintf("%s: %d overlapping rules for board=%s material=%d width=%s",
			ErrRuleNotFound, e.Candidates, e.BoardType, e.MaterialID, e.Width)
	}
	return fmt.Sprintf("%s: board=%s material=%d width=%s",
		ErrRuleNotFound, e.BoardType, e.MaterialID, e.Width)
}

func (e *RuleNotFoundError) Is(target error) bool {
	return target == ErrRuleNotFound
}

func invalidOrder(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

func invalidDimension(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDimension, fmt.Sprintf(format, args...))
}

func fmtUnknownPart(kind string) error {
	return fmt.Errorf("%w: %q", ErrUnknownSpecialPart, kind)
}
