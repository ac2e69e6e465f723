package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabsplit/tabsplit-backend/internal/api/dto"
	"github.com/tabsplit/tabsplit-backend/internal/application/service"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// PaymentsHandler handles payment recording requests.
type PaymentsHandler struct {
	*Base
}

// NewPaymentsHandler creates a new payments handler.
func NewPaymentsHandler(svc *service.OrderService) *PaymentsHandler {
	return &PaymentsHandler{
		Base: NewBase(svc),
	}
}

// Put handles PUT /api/orders/{id}/payments - replaces the full payment
// list. Corrections are resubmitted as a whole.
func (h *PaymentsHandler) Put(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req dto.RecordPaymentsRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	inputs := make([]service.PaymentInput, 0, len(req.Payments))
	for _, p := range req.Payments {
		inputs = append(inputs, service.PaymentInput{
			MemberID: p.MemberID,
			Amount:   money.FromFloat(p.Amount),
		})
	}

	payments, err := h.svc.RecordPayments(orderID, inputs)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toPaymentListResponse(orderID, payments))
}

// Get handles GET /api/orders/{id}/payments.
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	payments, err := h.svc.GetPayments(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toPaymentListResponse(orderID, payments))
}

func toPaymentListResponse(orderID string, payments []storage.PaymentRecord) dto.PaymentListResponse {
	response := dto.PaymentListResponse{
		OrderID:  orderID,
		Payments: make([]dto.PaymentResponse, 0, len(payments)),
	}
	for _, p := range payments {
		response.Payments = append(response.Payments, dto.PaymentResponse{
			MemberID: p.MemberID,
			Amount:   money.Money(p.AmountCents).Float64(),
		})
	}
	return response
}
