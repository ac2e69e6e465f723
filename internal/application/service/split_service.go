package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tabsplit/tabsplit-backend/internal/domain/allocation"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/domain/reconcile"
	"github.com/tabsplit/tabsplit-backend/internal/domain/settle"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// ErrNotSettled is returned by finalization when payments do not balance
// against the owed totals.
var ErrNotSettled = errors.New("order is not settled")

// MemberSplit is one member's share of the order.
type MemberSplit struct {
	MemberID      string
	MemberName    string
	ItemsTotal    money.Money
	SharedPortion money.Money
	Total         money.Money
	Items         []allocation.ItemShare
}

// SplitResult is the full recomputed split for an order: per-member shares
// plus the order-level totals they were derived from.
type SplitResult struct {
	OrderID    string
	Currency   string
	Members    []MemberSplit
	Subtotal   money.Money
	SharedCost money.Money
	Total      money.Money

	// TotalCheck is nil until a receipt is attached. A mismatch is flagged
	// here, not raised as an error.
	TotalCheck *reconcile.TotalCheck

	// Unmatched scanned receipt lines awaiting manual assignment.
	Unmatched []reconcile.ScannedItem
}

// ComputeSplit recomputes the per-member split from the stored snapshot:
// order items, attached receipt (if any) and the current override set.
// Nothing derived is persisted; every call starts from the records.
func (s *OrderService) ComputeSplit(orderID string) (*SplitResult, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == storage.StatusCancelled {
		return nil, fmt.Errorf("cannot split order in status %s: %w", order.Status, ErrOrderFinal)
	}

	receipt, err := s.store.GetReceipt(orderID)
	if errors.Is(err, storage.ErrNotFound) {
		receipt = nil
	} else if err != nil {
		return nil, err
	}

	overrides, err := s.store.GetOverrides(orderID)
	if err != nil {
		return nil, err
	}

	items := toLineItems(order.Items)
	ov := toOverrideSet(overrides)

	var scanned []reconcile.ScannedItem
	if receipt != nil {
		for _, line := range receipt.ScannedItems {
			scanned = append(scanned, reconcile.ScannedItem{
				Name:       line.Name,
				Quantity:   line.Quantity,
				TotalPrice: money.Money(line.TotalPriceCents),
			})
		}
	}

	rec, err := reconcile.Reconcile(items, scanned, ov, s.matcher)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]string, 0, len(order.Members))
	for _, m := range order.Members {
		memberIDs = append(memberIDs, m.ID)
	}

	allocated, err := allocation.AllocateItems(rec.Corrected.Items, rec.Corrected.Extras, rec.Corrected.Prices, memberIDs)
	if err != nil {
		return nil, err
	}

	// Shared cost comes from the fee lines when the receipt itemizes them.
	// A receipt with no fee lines can still state a total above the items;
	// that surplus is the shared cost (the user edited the total directly).
	// A stated total below the items is left to the total check to flag.
	var sharedCost money.Money
	if receipt != nil {
		sharedCost = allocation.SharedFromFees(
			money.Money(receipt.TaxCents),
			money.Money(receipt.ServiceFeeCents),
			money.Money(receipt.DeliveryFeeCents),
		)
		if sharedCost == 0 {
			if extra := allocation.SharedFromTotal(money.Money(receipt.TotalCents), rec.Subtotal); extra > 0 {
				sharedCost = extra
			}
		}
	}

	itemTotals := make(map[string]money.Money, len(allocated))
	for id, m := range allocated {
		itemTotals[id] = m.Total
	}

	portions := make(map[string]money.Money, len(itemTotals))
	if sharedCost != 0 {
		// A negative shared cost is bad data; the allocator rejects it.
		portions, err = allocation.AllocateShared(itemTotals, sharedCost)
		if err != nil {
			return nil, err
		}
	}

	result := &SplitResult{
		OrderID:    orderID,
		Currency:   order.Currency,
		Subtotal:   rec.Subtotal,
		SharedCost: sharedCost,
		Total:      rec.Subtotal + sharedCost,
		Unmatched:  rec.Unmatched,
	}

	if receipt != nil {
		check := reconcile.CheckTotal(rec.Corrected, sharedCost, money.Money(receipt.TotalCents))
		result.TotalCheck = &check
	}

	names := make(map[string]string, len(order.Members))
	for _, m := range order.Members {
		names[m.ID] = m.Name
	}

	for _, id := range memberIDs {
		m := allocated[id]
		split := MemberSplit{
			MemberID:      id,
			MemberName:    names[id],
			ItemsTotal:    m.Total,
			SharedPortion: portions[id],
			Items:         m.Items,
		}
		split.Total = split.ItemsTotal + split.SharedPortion
		result.Members = append(result.Members, split)
	}
	sort.Slice(result.Members, func(i, j int) bool {
		return result.Members[i].MemberID < result.Members[j].MemberID
	})

	return result, nil
}

// ComputeSettlement derives the transfer plan from the current split and the
// recorded payments. An unbalanced order yields a result with the exact
// discrepancy and no transfers; the error carries the same amount for
// errors.Is/errors.As callers.
func (s *OrderService) ComputeSettlement(orderID string) (settle.Result, *SplitResult, error) {
	split, err := s.ComputeSplit(orderID)
	if err != nil {
		return settle.Result{}, nil, err
	}

	payments, err := s.store.GetPayments(orderID)
	if err != nil {
		return settle.Result{}, nil, err
	}

	owed := make(map[string]money.Money, len(split.Members))
	for _, m := range split.Members {
		owed[m.MemberID] = m.Total
	}
	paid := make(map[string]money.Money, len(payments))
	for _, p := range payments {
		// A member's payment events sum into one balance.
		paid[p.MemberID] += money.Money(p.AmountCents)
	}

	result, err := settle.Compute(owed, paid)
	if err != nil {
		var unbalanced *settle.UnbalancedError
		if errors.As(err, &unbalanced) {
			// The plan itself reports the gap; callers decide whether that
			// is a failure or just review-screen state
			return result, split, err
		}
		return settle.Result{}, nil, err
	}

	return result, split, nil
}

// FinalizeOrder marks a CLOSED order PAID once a balanced settlement exists.
// Only the settled fact persists; the transfer list is recomputed on demand.
func (s *OrderService) FinalizeOrder(orderID string) (*storage.OrderRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusClosed {
		return nil, fmt.Errorf("cannot finalize order in status %s: %w", order.Status, ErrOrderNotClosed)
	}

	result, _, err := s.ComputeSettlement(orderID)
	if err != nil {
		if errors.Is(err, settle.ErrUnbalanced) {
			return nil, fmt.Errorf("discrepancy %s: %w", result.Discrepancy, ErrNotSettled)
		}
		return nil, err
	}

	order.Status = storage.StatusPaid
	order.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order finalized", "order_id", orderID, "transfers", len(result.Transfers))

	return order, nil
}

// toLineItems converts stored order items to the allocation domain type.
func toLineItems(items []storage.OrderItem) []allocation.LineItem {
	result := make([]allocation.LineItem, 0, len(items))
	for _, item := range items {
		li := allocation.LineItem{
			ID:           item.ID,
			OwnerID:      item.OwnerID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    money.Money(item.UnitPriceCents),
			VariantDelta: money.Money(item.VariantDeltaCents),
		}
		for _, a := range item.Addons {
			li.Addons = append(li.Addons, allocation.Addon{
				Name:  a.Name,
				Price: money.Money(a.PriceCents),
			})
		}
		result = append(result, li)
	}
	return result
}

// toOverrideSet converts a stored override record to the reconcile domain type.
func toOverrideSet(rec *storage.OverrideRecord) reconcile.OverrideSet {
	ov := reconcile.OverrideSet{
		Prices: make(map[string]money.Money, len(rec.Prices)),
	}
	for _, p := range rec.Prices {
		ov.Prices[p.ItemID] = money.Money(p.PriceCents)
	}
	for _, e := range rec.Extras {
		ov.Extras = append(ov.Extras, allocation.ExtraItem{
			ID:       e.ID,
			Name:     e.Name,
			Price:    money.Money(e.PriceCents),
			MemberID: e.MemberID,
		})
	}
	return ov
}
