package reconcile

import (
	"errors"
	"fmt"

	"github.com/tabsplit/tabsplit-backend/internal/domain/allocation"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
)

// ErrUnknownItem is returned when a price override references an item id
// that is not on the order.
var ErrUnknownItem = errors.New("price override for unknown item")

// ApplyOverrides produces the corrected item set for allocation from the
// original order items and a complete override set. It is pure: the input
// items are copied, their recorded prices never change, and applying the
// same set twice yields the same state as applying it once.
func ApplyOverrides(items []allocation.LineItem, ov OverrideSet) (CorrectedState, error) {
	state := CorrectedState{
		Items:  make([]allocation.LineItem, len(items)),
		Extras: make([]allocation.ExtraItem, len(ov.Extras)),
		Prices: make(map[string]money.Money, len(ov.Prices)),
	}
	copy(state.Items, items)
	copy(state.Extras, ov.Extras)

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	for id, price := range ov.Prices {
		if !known[id] {
			return CorrectedState{}, fmt.Errorf("item %q: %w", id, ErrUnknownItem)
		}
		if price < 0 {
			return CorrectedState{}, fmt.Errorf("item %q: override price %s: %w", id, price, money.ErrInvalidAmount)
		}
		state.Prices[id] = price
	}

	subtotal, err := recomputeSubtotal(state)
	if err != nil {
		return CorrectedState{}, err
	}
	state.Subtotal = subtotal

	return state, nil
}

// recomputeSubtotal sums corrected effective item prices: overridden unit
// price (or the item's effective price) times quantity, plus extras.
func recomputeSubtotal(state CorrectedState) (money.Money, error) {
	var subtotal money.Money

	for _, item := range state.Items {
		unit := item.EffectiveUnitPrice()
		if override, ok := state.Prices[item.ID]; ok {
			unit = override
		}
		total, err := money.MulQuantity(unit, item.Quantity)
		if err != nil {
			return 0, fmt.Errorf("item %q: %w", item.ID, err)
		}
		subtotal += total
	}

	for _, extra := range state.Extras {
		if extra.Price < 0 {
			return 0, fmt.Errorf("extra item %q: price %s: %w", extra.Name, extra.Price, money.ErrInvalidAmount)
		}
		subtotal += extra.Price
	}

	return subtotal, nil
}

// CheckTotal compares the receipt's stated total against the corrected
// subtotal plus the shared cost being allocated. The difference is
// reported, never rounded away.
func CheckTotal(state CorrectedState, sharedCost, statedTotal money.Money) TotalCheck {
	expected := state.Subtotal + sharedCost
	diff := statedTotal - expected
	return TotalCheck{
		Expected:   expected,
		Stated:     statedTotal,
		Difference: diff,
		Matches:    diff == 0,
	}
}

// Result is the full reconciliation outcome exposed to callers: the
// corrected item state for allocation, the scanned lines that could not be
// placed, and the recomputed subtotal.
type Result struct {
	Corrected CorrectedState
	Unmatched []ScannedItem
	Subtotal  money.Money
}

// Reconcile matches scanned receipt lines against the order's items and
// applies the override set in one pass.
func Reconcile(items []allocation.LineItem, scanned []ScannedItem, ov OverrideSet, cfg MatcherConfig) (Result, error) {
	matches := MatchScannedItems(scanned, items, cfg)

	state, err := ApplyOverrides(items, ov)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Corrected: state,
		Unmatched: matches.Unmatched,
		Subtotal:  state.Subtotal,
	}, nil
}
