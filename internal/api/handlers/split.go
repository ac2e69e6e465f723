package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabsplit/tabsplit-backend/internal/api/dto"
	"github.com/tabsplit/tabsplit-backend/internal/application/service"
	"github.com/tabsplit/tabsplit-backend/internal/domain/settle"
)

// SplitHandler serves the recomputed split and the settlement plan.
type SplitHandler struct {
	*Base
}

// NewSplitHandler creates a new split handler.
func NewSplitHandler(svc *service.OrderService) *SplitHandler {
	return &SplitHandler{
		Base: NewBase(svc),
	}
}

// GetSplit handles GET /api/orders/{id}/split - recomputes the per-member
// split from the stored snapshot.
func (h *SplitHandler) GetSplit(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	split, err := h.svc.ComputeSplit(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toSplitResponse(split))
}

// GetSettlement handles GET /api/orders/{id}/settlement. An unbalanced
// order still answers 200: the plan carries balanced=false plus the exact
// discrepancy so the review screen can show what is missing.
func (h *SplitHandler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	result, _, err := h.svc.ComputeSettlement(orderID)
	if err != nil && !errors.Is(err, settle.ErrUnbalanced) {
		h.WriteServiceError(w, err)
		return
	}

	response := dto.SettlementResponse{
		OrderID:     orderID,
		Transfers:   make([]dto.TransferResponse, 0, len(result.Transfers)),
		Balanced:    result.Balanced,
		Discrepancy: result.Discrepancy.Float64(),
	}
	for _, t := range result.Transfers {
		response.Transfers = append(response.Transfers, dto.TransferResponse{
			From:   t.From,
			To:     t.To,
			Amount: t.Amount.Float64(),
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

func toSplitResponse(split *service.SplitResult) dto.SplitResponse {
	response := dto.SplitResponse{
		OrderID:    split.OrderID,
		Currency:   split.Currency,
		Members:    make([]dto.MemberSplitResponse, 0, len(split.Members)),
		Subtotal:   split.Subtotal.Float64(),
		SharedCost: split.SharedCost.Float64(),
		Total:      split.Total.Float64(),
	}

	for _, m := range split.Members {
		member := dto.MemberSplitResponse{
			MemberID:          m.MemberID,
			MemberName:        m.MemberName,
			ItemsTotal:        m.ItemsTotal.Float64(),
			SharedCostPortion: m.SharedPortion.Float64(),
			Total:             m.Total.Float64(),
			Items:             make([]dto.ItemShareResponse, 0, len(m.Items)),
		}
		for _, item := range m.Items {
			member.Items = append(member.Items, dto.ItemShareResponse{
				ItemID:        item.ItemID,
				Name:          item.Name,
				Quantity:      item.Quantity,
				OriginalPrice: item.OriginalPrice.Float64(),
				CurrentPrice:  item.CurrentPrice.Float64(),
			})
		}
		response.Members = append(response.Members, member)
	}

	if split.TotalCheck != nil {
		response.TotalCheck = &dto.TotalCheckResponse{
			Expected:   split.TotalCheck.Expected.Float64(),
			Stated:     split.TotalCheck.Stated.Float64(),
			Difference: split.TotalCheck.Difference.Float64(),
			Matches:    split.TotalCheck.Matches,
		}
	}

	response.Unmatched = toScannedResponses(split.Unmatched)

	return response
}
