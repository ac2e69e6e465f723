// Package allocation computes per-member totals for a group order.
//
// Item allocation groups order line items by their owner and sums each
// member's items total, applying any per-item price overrides. Shared-cost
// allocation then distributes non-itemized charges (tax, service fee,
// delivery fee) across members proportionally to those totals:
//
//	share = sharedCost × (member items total / sum of items totals)
//
// with an equal split when nobody has items. Both steps use exact
// minor-unit arithmetic from the money package, so member shares always
// sum to the amount being distributed.
package allocation

import (
	"fmt"
	"sort"

	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
)

// Addon is an extra charge attached to a line item (e.g. "Extra cheese").
type Addon struct {
	Name  string
	Price money.Money
}

// LineItem is one ordered item instance owned by exactly one member.
// UnitPrice is the base price recorded at order time and is never rewritten;
// corrections are layered on as overrides.
type LineItem struct {
	ID           string
	OwnerID      string
	Name         string
	Quantity     int
	UnitPrice    money.Money
	VariantDelta money.Money
	Addons       []Addon
}

// EffectiveUnitPrice is the price one unit actually costs:
// base + variant delta + addons.
func (li LineItem) EffectiveUnitPrice() money.Money {
	price := li.UnitPrice + li.VariantDelta
	for _, a := range li.Addons {
		price += a.Price
	}
	return price
}

// ExtraItem is a manually added item from receipt review, assigned to a
// member but not present in the original order. It has no addons or variants.
type ExtraItem struct {
	ID       string
	Name     string
	Price    money.Money
	MemberID string
}

// ItemShare is one priced item in a member's breakdown, kept for display
// and audit. CurrentPrice differs from OriginalPrice when an override
// applies.
type ItemShare struct {
	ItemID        string
	Name          string
	Quantity      int
	OriginalPrice money.Money
	CurrentPrice  money.Money
}

// MemberItems is one member's share of the itemized part of the order.
type MemberItems struct {
	MemberID string
	Total    money.Money
	Items    []ItemShare
}

// AllocateItems groups line items and manual extras by owner and sums each
// member's items total. An override in priceOverrides replaces the entire
// effective unit price for that item id. Members listed in memberIDs appear
// in the result even with zero items, so shared-cost allocation and the
// equal-split fallback still include them.
func AllocateItems(items []LineItem, extras []ExtraItem, priceOverrides map[string]money.Money, memberIDs []string) (map[string]*MemberItems, error) {
	result := make(map[string]*MemberItems, len(memberIDs))
	for _, id := range memberIDs {
		result[id] = &MemberItems{MemberID: id}
	}

	member := func(id string) *MemberItems {
		if m, ok := result[id]; ok {
			return m
		}
		m := &MemberItems{MemberID: id}
		result[id] = m
		return m
	}

	for _, item := range items {
		original := item.EffectiveUnitPrice()
		if original < 0 {
			return nil, fmt.Errorf("item %q: effective price %s: %w", item.ID, original, money.ErrInvalidAmount)
		}

		unit := original
		if override, ok := priceOverrides[item.ID]; ok {
			if override < 0 {
				return nil, fmt.Errorf("item %q: override price %s: %w", item.ID, override, money.ErrInvalidAmount)
			}
			unit = override
		}

		total, err := money.MulQuantity(unit, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item.ID, err)
		}

		m := member(item.OwnerID)
		m.Total += total
		m.Items = append(m.Items, ItemShare{
			ItemID:        item.ID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			OriginalPrice: original,
			CurrentPrice:  unit,
		})
	}

	for _, extra := range extras {
		if extra.Price < 0 {
			return nil, fmt.Errorf("extra item %q: price %s: %w", extra.Name, extra.Price, money.ErrInvalidAmount)
		}

		m := member(extra.MemberID)
		m.Total += extra.Price
		m.Items = append(m.Items, ItemShare{
			ItemID:        extra.ID,
			Name:          extra.Name,
			Quantity:      1,
			OriginalPrice: extra.Price,
			CurrentPrice:  extra.Price,
		})
	}

	return result, nil
}

// ItemsSubtotal sums the items totals of an allocation result.
func ItemsSubtotal(members map[string]*MemberItems) money.Money {
	var subtotal money.Money
	for _, m := range members {
		subtotal += m.Total
	}
	return subtotal
}

// AllocateShared distributes sharedCost across the members of itemTotals,
// proportionally to their items totals. When every items total is zero the
// cost is split equally instead. Either way the returned portions sum
// exactly to sharedCost. Members are processed in id order so remainder
// cents land deterministically.
func AllocateShared(itemTotals map[string]money.Money, sharedCost money.Money) (map[string]money.Money, error) {
	if sharedCost < 0 {
		return nil, fmt.Errorf("shared cost %s: %w", sharedCost, money.ErrInvalidAmount)
	}
	if len(itemTotals) == 0 {
		return nil, fmt.Errorf("no members to share cost across: %w", money.ErrInvalidAmount)
	}

	memberIDs := make([]string, 0, len(itemTotals))
	for id := range itemTotals {
		memberIDs = append(memberIDs, id)
	}
	sort.Strings(memberIDs)

	weights := make([]money.Money, len(memberIDs))
	var weightSum money.Money
	for i, id := range memberIDs {
		if itemTotals[id] < 0 {
			return nil, fmt.Errorf("member %q: items total %s: %w", id, itemTotals[id], money.ErrInvalidAmount)
		}
		weights[i] = itemTotals[id]
		weightSum += itemTotals[id]
	}

	var shares []money.Money
	var err error
	if weightSum > 0 {
		shares, err = money.SplitByWeights(sharedCost, weights)
	} else {
		// Pure manual split with no item records: everyone pays the same.
		shares, err = money.SplitEven(sharedCost, len(memberIDs))
	}
	if err != nil {
		return nil, err
	}

	portions := make(map[string]money.Money, len(memberIDs))
	for i, id := range memberIDs {
		portions[id] = shares[i]
	}
	return portions, nil
}

// SharedFromFees derives the shared-cost total from itemized fees.
func SharedFromFees(tax, serviceFee, deliveryFee money.Money) money.Money {
	return tax + serviceFee + deliveryFee
}

// SharedFromTotal derives the shared-cost total when the user edited the
// grand total directly instead of the fees.
func SharedFromTotal(totalAmount, itemsSubtotal money.Money) money.Money {
	return totalAmount - itemsSubtotal
}
