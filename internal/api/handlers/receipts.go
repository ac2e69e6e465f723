package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabsplit/tabsplit-backend/internal/api/dto"
	"github.com/tabsplit/tabsplit-backend/internal/application/service"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/domain/reconcile"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// ReceiptsHandler handles receipt attach/edit and override requests.
type ReceiptsHandler struct {
	*Base
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(svc *service.OrderService) *ReceiptsHandler {
	return &ReceiptsHandler{
		Base: NewBase(svc),
	}
}

// Attach handles POST /api/orders/{id}/receipt - stores the scanner output
// against a CLOSED order and returns the line matches for review.
func (h *ReceiptsHandler) Attach(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req dto.AttachReceiptRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	input := service.ReceiptInput{
		Subtotal:    money.FromFloat(req.Subtotal),
		Tax:         money.FromFloat(req.Tax),
		ServiceFee:  money.FromFloat(req.ServiceFee),
		DeliveryFee: money.FromFloat(req.DeliveryFee),
		Total:       money.FromFloat(req.Total),
	}
	for _, line := range req.ScannedItems {
		input.ScannedItems = append(input.ScannedItems, service.ScannedItemInput{
			Name:       line.Name,
			Quantity:   line.Quantity,
			TotalPrice: money.FromFloat(line.TotalPrice),
		})
	}

	receipt, matches, err := h.svc.AttachReceipt(orderID, input)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	response := dto.AttachReceiptResponse{
		Receipt:   toReceiptResponse(receipt),
		Matched:   make([]dto.MatchResponse, 0, len(matches.Matched)),
		Unmatched: toScannedResponses(matches.Unmatched),
	}
	for _, m := range matches.Matched {
		response.Matched = append(response.Matched, dto.MatchResponse{
			OrderItemID: m.OrderItemID,
			Scanned: dto.ScannedItemResponse{
				Name:       m.Scanned.Name,
				Quantity:   m.Scanned.Quantity,
				TotalPrice: m.Scanned.TotalPrice.Float64(),
			},
			NameScore: m.NameScore,
		})
	}

	h.WriteJSON(w, http.StatusCreated, response)
}

// Get handles GET /api/orders/{id}/receipt.
func (h *ReceiptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	receipt, err := h.svc.GetReceipt(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// UpdateFees handles PUT /api/orders/{id}/receipt/fees - edits the fee
// lines; the grand total follows as subtotal + fees.
func (h *ReceiptsHandler) UpdateFees(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req dto.UpdateFeesRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.svc.UpdateReceiptFees(orderID,
		money.FromFloat(req.Tax),
		money.FromFloat(req.ServiceFee),
		money.FromFloat(req.DeliveryFee),
	)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// UpdateTotal handles PUT /api/orders/{id}/receipt/total - edits the grand
// total; the subtotal is back-derived as total minus fees.
func (h *ReceiptsHandler) UpdateTotal(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req dto.UpdateTotalRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.svc.UpdateReceiptTotal(orderID, money.FromFloat(req.Total))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

// SetOverrides handles PUT /api/orders/{id}/overrides - replaces the whole
// override set from receipt review.
func (h *ReceiptsHandler) SetOverrides(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req dto.SetOverridesRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	input := service.OverrideInput{
		Prices: make(map[string]money.Money, len(req.Prices)),
	}
	for id, price := range req.Prices {
		input.Prices[id] = money.FromFloat(price)
	}
	for _, e := range req.Extras {
		input.Extras = append(input.Extras, service.ExtraInput{
			Name:     e.Name,
			Price:    money.FromFloat(e.Price),
			MemberID: e.MemberID,
		})
	}

	rec, err := h.svc.SetOverrides(orderID, input)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOverridesResponse(rec))
}

// GetOverrides handles GET /api/orders/{id}/overrides.
func (h *ReceiptsHandler) GetOverrides(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	rec, err := h.svc.GetOverrides(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOverridesResponse(rec))
}

func toReceiptResponse(receipt *storage.ReceiptRecord) dto.ReceiptResponse {
	response := dto.ReceiptResponse{
		OrderID:     receipt.OrderID,
		Subtotal:    money.Money(receipt.SubtotalCents).Float64(),
		Tax:         money.Money(receipt.TaxCents).Float64(),
		ServiceFee:  money.Money(receipt.ServiceFeeCents).Float64(),
		DeliveryFee: money.Money(receipt.DeliveryFeeCents).Float64(),
		Total:       money.Money(receipt.TotalCents).Float64(),
	}
	for _, line := range receipt.ScannedItems {
		response.ScannedItems = append(response.ScannedItems, dto.ScannedItemResponse{
			Name:       line.Name,
			Quantity:   line.Quantity,
			TotalPrice: money.Money(line.TotalPriceCents).Float64(),
		})
	}
	return response
}

func toOverridesResponse(rec *storage.OverrideRecord) dto.OverridesResponse {
	response := dto.OverridesResponse{
		OrderID: rec.OrderID,
		Prices:  make(map[string]float64, len(rec.Prices)),
		Extras:  make([]dto.ExtraItemResponse, 0, len(rec.Extras)),
	}
	for _, p := range rec.Prices {
		response.Prices[p.ItemID] = money.Money(p.PriceCents).Float64()
	}
	for _, e := range rec.Extras {
		response.Extras = append(response.Extras, dto.ExtraItemResponse{
			ID:       e.ID,
			Name:     e.Name,
			Price:    money.Money(e.PriceCents).Float64(),
			MemberID: e.MemberID,
		})
	}
	return response
}

func toScannedResponses(items []reconcile.ScannedItem) []dto.ScannedItemResponse {
	result := make([]dto.ScannedItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, dto.ScannedItemResponse{
			Name:       item.Name,
			Quantity:   item.Quantity,
			TotalPrice: item.TotalPrice.Float64(),
		})
	}
	return result
}
