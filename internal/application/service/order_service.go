package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit-backend/internal/domain/allocation"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/domain/reconcile"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// Lifecycle errors surfaced to the API layer.
var (
	ErrOrderNotOpen   = errors.New("order is not open")
	ErrOrderNotClosed = errors.New("order is not closed")
	ErrOrderFinal     = errors.New("order is in a terminal state")
	ErrUnknownMember  = errors.New("member does not belong to the order")
	ErrItemNotFound   = errors.New("item not found on the order")
	ErrNotItemOwner   = errors.New("item belongs to another member")
	ErrNoReceipt      = errors.New("order has no attached receipt")
	ErrNoMembers      = errors.New("order needs at least one member")
)

// DefaultCurrency is the display currency of the app.
const DefaultCurrency = "EGP"

// OrderService manages the order lifecycle: creation, items, receipt review,
// payments and finalization. Split computation lives on the same service so
// every read recomputes from the stored snapshot.
type OrderService struct {
	store   storage.Repository
	logger  *slog.Logger
	matcher reconcile.MatcherConfig
}

// NewOrderService creates a new order service.
func NewOrderService(store storage.Repository, logger *slog.Logger, matcher reconcile.MatcherConfig) *OrderService {
	return &OrderService{
		store:   store,
		logger:  logger,
		matcher: matcher,
	}
}

// MemberInput names a participant when creating an order.
type MemberInput struct {
	Name string
}

// CreateOrder creates an OPEN order with the given members.
func (s *OrderService) CreateOrder(name, restaurant string, members []MemberInput) (*storage.OrderRecord, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	now := time.Now().UTC()
	order := &storage.OrderRecord{
		ID:         uuid.NewString(),
		Name:       name,
		Restaurant: restaurant,
		Currency:   DefaultCurrency,
		Status:     storage.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, m := range members {
		order.Members = append(order.Members, storage.Member{
			ID:   uuid.NewString(),
			Name: m.Name,
		})
	}

	if err := s.store.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order created",
		"order_id", order.ID,
		"members", len(order.Members),
	)

	return order, nil
}

// GetOrder retrieves an order by id.
func (s *OrderService) GetOrder(orderID string) (*storage.OrderRecord, error) {
	return s.store.GetOrder(orderID)
}

// ListOrders returns orders matching the filters.
func (s *OrderService) ListOrders(filters storage.OrderFilters) (*storage.OrderListResult, error) {
	return s.store.ListOrders(filters)
}

// ItemInput describes an item being added to an open order.
type ItemInput struct {
	OwnerID      string
	Name         string
	Quantity     int
	UnitPrice    money.Money
	VariantName  string
	VariantDelta money.Money
	Addons       []AddonInput
}

// AddonInput is one addon on an item being added.
type AddonInput struct {
	Name  string
	Price money.Money
}

// AddItem appends an item to an OPEN order. The unit price is recorded as
// the price at order time and is never rewritten afterwards.
func (s *OrderService) AddItem(orderID string, input ItemInput) (*storage.OrderRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusOpen {
		return nil, fmt.Errorf("cannot add item in status %s: %w", order.Status, ErrOrderNotOpen)
	}
	if _, ok := order.MemberByID(input.OwnerID); !ok {
		return nil, fmt.Errorf("owner %q: %w", input.OwnerID, ErrUnknownMember)
	}
	if input.UnitPrice < 0 || input.UnitPrice+input.VariantDelta < 0 {
		return nil, fmt.Errorf("item %q: negative price: %w", input.Name, money.ErrInvalidAmount)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("item %q: quantity %d: %w", input.Name, input.Quantity, money.ErrInvalidAmount)
	}

	item := storage.OrderItem{
		ID:                uuid.NewString(),
		OwnerID:           input.OwnerID,
		Name:              input.Name,
		Quantity:          input.Quantity,
		UnitPriceCents:    int64(input.UnitPrice),
		VariantName:       input.VariantName,
		VariantDeltaCents: int64(input.VariantDelta),
	}
	for _, a := range input.Addons {
		if a.Price < 0 {
			return nil, fmt.Errorf("addon %q: negative price: %w", a.Name, money.ErrInvalidAmount)
		}
		item.Addons = append(item.Addons, storage.ItemAddon{
			Name:       a.Name,
			PriceCents: int64(a.Price),
		})
	}

	order.Items = append(order.Items, item)
	order.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("item added",
		"order_id", orderID,
		"item_id", item.ID,
		"owner_id", input.OwnerID,
	)

	return order, nil
}

// RemoveItem removes an item from an OPEN order. Members can only remove
// their own items.
func (s *OrderService) RemoveItem(orderID, itemID, requesterID string) (*storage.OrderRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusOpen {
		return nil, fmt.Errorf("cannot remove item in status %s: %w", order.Status, ErrOrderNotOpen)
	}

	idx := -1
	for i, item := range order.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("item %q: %w", itemID, ErrItemNotFound)
	}
	if order.Items[idx].OwnerID != requesterID {
		return nil, fmt.Errorf("item %q: %w", itemID, ErrNotItemOwner)
	}

	order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
	order.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("item removed", "order_id", orderID, "item_id", itemID)

	return order, nil
}

// CloseOrder freezes the item set and opens the receipt-review phase.
func (s *OrderService) CloseOrder(orderID string) (*storage.OrderRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusOpen {
		return nil, fmt.Errorf("cannot close order in status %s: %w", order.Status, ErrOrderNotOpen)
	}

	order.Status = storage.StatusClosed
	order.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order closed", "order_id", orderID, "items", len(order.Items))

	return order, nil
}

// CancelOrder cancels an order. Cancellation is terminal; a PAID or already
// CANCELLED order cannot be cancelled.
func (s *OrderService) CancelOrder(orderID string) (*storage.OrderRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == storage.StatusPaid || order.Status == storage.StatusCancelled {
		return nil, fmt.Errorf("cannot cancel order in status %s: %w", order.Status, ErrOrderFinal)
	}

	order.Status = storage.StatusCancelled
	order.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order cancelled", "order_id", orderID)

	return order, nil
}

// ReceiptInput is the structured output of the external receipt scanner.
type ReceiptInput struct {
	Subtotal     money.Money
	Tax          money.Money
	ServiceFee   money.Money
	DeliveryFee  money.Money
	Total        money.Money
	ScannedItems []ScannedItemInput
}

// ScannedItemInput is one line off the scanned receipt.
type ScannedItemInput struct {
	Name       string
	Quantity   int
	TotalPrice money.Money
}

// AttachReceipt stores a parsed receipt against a CLOSED order and returns
// the scanned-line matches for review.
func (s *OrderService) AttachReceipt(orderID string, input ReceiptInput) (*storage.ReceiptRecord, *reconcile.MatchResult, error) {
	if input.Subtotal < 0 || input.Tax < 0 || input.ServiceFee < 0 || input.DeliveryFee < 0 || input.Total < 0 {
		return nil, nil, fmt.Errorf("negative receipt amount: %w", money.ErrInvalidAmount)
	}

	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != storage.StatusClosed {
		return nil, nil, fmt.Errorf("cannot attach receipt in status %s: %w", order.Status, ErrOrderNotClosed)
	}

	now := time.Now().UTC()
	receipt := &storage.ReceiptRecord{
		OrderID:          orderID,
		SubtotalCents:    int64(input.Subtotal),
		TaxCents:         int64(input.Tax),
		ServiceFeeCents:  int64(input.ServiceFee),
		DeliveryFeeCents: int64(input.DeliveryFee),
		TotalCents:       int64(input.Total),
		AttachedAt:       now,
		UpdatedAt:        now,
	}
	scanned := make([]reconcile.ScannedItem, 0, len(input.ScannedItems))
	for _, line := range input.ScannedItems {
		receipt.ScannedItems = append(receipt.ScannedItems, storage.ScannedLine{
			Name:            line.Name,
			Quantity:        line.Quantity,
			TotalPriceCents: int64(line.TotalPrice),
		})
		scanned = append(scanned, reconcile.ScannedItem{
			Name:       line.Name,
			Quantity:   line.Quantity,
			TotalPrice: line.TotalPrice,
		})
	}

	if err := s.store.SaveReceipt(receipt); err != nil {
		return nil, nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	matches := reconcile.MatchScannedItems(scanned, toLineItems(order.Items), s.matcher)

	s.logger.Info("receipt attached",
		"order_id", orderID,
		"scanned_items", len(scanned),
		"unmatched", len(matches.Unmatched),
	)

	return receipt, &matches, nil
}

// UpdateReceiptFees replaces the receipt's fee lines and derives the grand
// total as subtotal + fees. The subtotal is left alone.
func (s *OrderService) UpdateReceiptFees(orderID string, tax, serviceFee, deliveryFee money.Money) (*storage.ReceiptRecord, error) {
	if tax < 0 || serviceFee < 0 || deliveryFee < 0 {
		return nil, fmt.Errorf("negative fee: %w", money.ErrInvalidAmount)
	}

	receipt, err := s.receiptForEdit(orderID)
	if err != nil {
		return nil, err
	}

	receipt.TaxCents = int64(tax)
	receipt.ServiceFeeCents = int64(serviceFee)
	receipt.DeliveryFeeCents = int64(deliveryFee)
	receipt.TotalCents = receipt.SubtotalCents + int64(tax) + int64(serviceFee) + int64(deliveryFee)
	receipt.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	return receipt, nil
}

// UpdateReceiptTotal replaces the receipt's grand total and back-derives the
// subtotal as total minus the current fees. The fees are left alone.
func (s *OrderService) UpdateReceiptTotal(orderID string, total money.Money) (*storage.ReceiptRecord, error) {
	if total < 0 {
		return nil, fmt.Errorf("negative total: %w", money.ErrInvalidAmount)
	}

	receipt, err := s.receiptForEdit(orderID)
	if err != nil {
		return nil, err
	}

	receipt.TotalCents = int64(total)
	receipt.SubtotalCents = int64(total) - receipt.TaxCents - receipt.ServiceFeeCents - receipt.DeliveryFeeCents
	receipt.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	return receipt, nil
}

// GetReceipt retrieves the attached receipt for an order.
func (s *OrderService) GetReceipt(orderID string) (*storage.ReceiptRecord, error) {
	if _, err := s.store.GetOrder(orderID); err != nil {
		return nil, err
	}
	receipt, err := s.store.GetReceipt(orderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("order %q: %w", orderID, ErrNoReceipt)
	}
	return receipt, err
}

// GetOverrides retrieves the current override set for an order. An order
// with no saved overrides gets an empty set.
func (s *OrderService) GetOverrides(orderID string) (*storage.OverrideRecord, error) {
	if _, err := s.store.GetOrder(orderID); err != nil {
		return nil, err
	}
	return s.store.GetOverrides(orderID)
}

// GetPayments retrieves the recorded payments for an order.
func (s *OrderService) GetPayments(orderID string) ([]storage.PaymentRecord, error) {
	if _, err := s.store.GetOrder(orderID); err != nil {
		return nil, err
	}
	return s.store.GetPayments(orderID)
}

// receiptForEdit loads the receipt of a CLOSED order for a fee edit.
func (s *OrderService) receiptForEdit(orderID string) (*storage.ReceiptRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusClosed {
		return nil, fmt.Errorf("cannot edit receipt in status %s: %w", order.Status, ErrOrderNotClosed)
	}

	receipt, err := s.store.GetReceipt(orderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("order %q: %w", orderID, ErrNoReceipt)
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// OverrideInput is the complete override set submitted from receipt review.
// It replaces whatever was saved before.
type OverrideInput struct {
	Prices map[string]money.Money
	Extras []ExtraInput
}

// ExtraInput is one manual item added during review.
type ExtraInput struct {
	Name     string
	Price    money.Money
	MemberID string
}

// SetOverrides validates and stores a replacement override set for a CLOSED
// order. Order-time prices are never touched.
func (s *OrderService) SetOverrides(orderID string, input OverrideInput) (*storage.OverrideRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusClosed {
		return nil, fmt.Errorf("cannot set overrides in status %s: %w", order.Status, ErrOrderNotClosed)
	}

	ov := reconcile.OverrideSet{Prices: input.Prices}
	rec := &storage.OverrideRecord{
		OrderID:   orderID,
		UpdatedAt: time.Now().UTC(),
	}
	for id, price := range input.Prices {
		rec.Prices = append(rec.Prices, storage.PriceOverride{
			ItemID:     id,
			PriceCents: int64(price),
		})
	}
	for _, extra := range input.Extras {
		if _, ok := order.MemberByID(extra.MemberID); !ok {
			return nil, fmt.Errorf("extra item %q: member %q: %w", extra.Name, extra.MemberID, ErrUnknownMember)
		}
		entry := storage.ExtraEntry{
			ID:         uuid.NewString(),
			Name:       extra.Name,
			PriceCents: int64(extra.Price),
			MemberID:   extra.MemberID,
		}
		rec.Extras = append(rec.Extras, entry)
		ov.Extras = append(ov.Extras, allocation.ExtraItem{
			ID:       entry.ID,
			Name:     entry.Name,
			Price:    extra.Price,
			MemberID: entry.MemberID,
		})
	}

	// Validates unknown item ids and negative prices before anything persists
	if _, err := reconcile.ApplyOverrides(toLineItems(order.Items), ov); err != nil {
		return nil, err
	}

	if err := s.store.SaveOverrides(rec); err != nil {
		return nil, fmt.Errorf("failed to save overrides: %w", err)
	}

	s.logger.Info("overrides replaced",
		"order_id", orderID,
		"price_overrides", len(rec.Prices),
		"extras", len(rec.Extras),
	)

	return rec, nil
}

// PaymentInput is one member's recorded payment.
type PaymentInput struct {
	MemberID string
	Amount   money.Money
}

// RecordPayments replaces the full payment list for an order. Payments are
// events: a member may appear several times (split a bill across cash and a
// transfer) and settlement sums them. Corrections resubmit the whole list.
func (s *OrderService) RecordPayments(orderID string, inputs []PaymentInput) ([]storage.PaymentRecord, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != storage.StatusClosed {
		return nil, fmt.Errorf("cannot record payments in status %s: %w", order.Status, ErrOrderNotClosed)
	}

	payments := make([]storage.PaymentRecord, 0, len(inputs))
	for _, p := range inputs {
		if _, ok := order.MemberByID(p.MemberID); !ok {
			return nil, fmt.Errorf("payment by %q: %w", p.MemberID, ErrUnknownMember)
		}
		if p.Amount < 0 {
			return nil, fmt.Errorf("payment by %q: amount %s: %w", p.MemberID, p.Amount, money.ErrInvalidAmount)
		}
		payments = append(payments, storage.PaymentRecord{
			OrderID:     orderID,
			MemberID:    p.MemberID,
			AmountCents: int64(p.Amount),
		})
	}

	if err := s.store.SavePayments(orderID, payments); err != nil {
		return nil, fmt.Errorf("failed to save payments: %w", err)
	}

	s.logger.Info("payments recorded", "order_id", orderID, "count", len(payments))

	return payments, nil
}
