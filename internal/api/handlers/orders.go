package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tabsplit/tabsplit-backend/internal/api/dto"
	"github.com/tabsplit/tabsplit-backend/internal/application/service"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// OrdersHandler handles order lifecycle HTTP requests.
type OrdersHandler struct {
	*Base
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(svc *service.OrderService) *OrdersHandler {
	return &OrdersHandler{
		Base: NewBase(svc),
	}
}

// Create handles POST /api/orders - starts a new group order.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrderRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("order name is required"))
		return
	}

	members := make([]service.MemberInput, 0, len(req.Members))
	for _, m := range req.Members {
		if m.Name == "" {
			h.WriteError(w, http.StatusBadRequest, dto.ValidationError("member name is required"))
			return
		}
		members = append(members, service.MemberInput{Name: m.Name})
	}

	order, err := h.svc.CreateOrder(req.Name, req.Restaurant, members)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

// List handles GET /api/orders - returns paginated list of orders.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.OrderFilters{
		Status: r.URL.Query().Get("status"),
		Limit:  ParseIntParam(r, "limit", 50),
		Offset: ParseIntParam(r, "offset", 0),
	}

	result, err := h.svc.ListOrders(filters)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	response := dto.OrderListResponse{
		Orders:     make([]dto.OrderResponse, 0, len(result.Orders)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for _, order := range result.Orders {
		response.Orders = append(response.Orders, toOrderResponse(order))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/orders/{id} - returns a single order by id.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.svc.GetOrder(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// AddItem handles POST /api/orders/{id}/items - adds an item while OPEN.
func (h *OrdersHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req dto.AddItemRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("item name is required"))
		return
	}

	input := service.ItemInput{
		OwnerID:      req.OwnerID,
		Name:         req.Name,
		Quantity:     req.Quantity,
		UnitPrice:    money.FromFloat(req.UnitPrice),
		VariantName:  req.VariantName,
		VariantDelta: money.FromFloat(req.VariantDelta),
	}
	for _, a := range req.Addons {
		input.Addons = append(input.Addons, service.AddonInput{
			Name:  a.Name,
			Price: money.FromFloat(a.Price),
		})
	}

	order, err := h.svc.AddItem(orderID, input)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

// RemoveItem handles DELETE /api/orders/{id}/items/{itemID}?member_id=...
// Members can only remove their own items.
func (h *OrdersHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")
	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError("member_id is required"))
		return
	}

	order, err := h.svc.RemoveItem(orderID, itemID, memberID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// Close handles POST /api/orders/{id}/close - freezes the item set.
func (h *OrdersHandler) Close(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.svc.CloseOrder(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.svc.CancelOrder(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// Finalize handles POST /api/orders/{id}/finalize - marks the order PAID
// once a balanced settlement exists.
func (h *OrdersHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	order, err := h.svc.FinalizeOrder(orderID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// toOrderResponse converts a storage record to an API response.
func toOrderResponse(order *storage.OrderRecord) dto.OrderResponse {
	response := dto.OrderResponse{
		ID:         order.ID,
		Name:       order.Name,
		Restaurant: order.Restaurant,
		Currency:   order.Currency,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  order.UpdatedAt.UTC().Format(time.RFC3339),
		Members:    make([]dto.MemberResponse, 0, len(order.Members)),
		Items:      make([]dto.OrderItemResponse, 0, len(order.Items)),
	}

	for _, m := range order.Members {
		response.Members = append(response.Members, dto.MemberResponse{
			ID:   m.ID,
			Name: m.Name,
		})
	}

	for _, item := range order.Items {
		itemResp := dto.OrderItemResponse{
			ID:           item.ID,
			OwnerID:      item.OwnerID,
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    money.Money(item.UnitPriceCents).Float64(),
			VariantName:  item.VariantName,
			VariantDelta: money.Money(item.VariantDeltaCents).Float64(),
		}
		for _, a := range item.Addons {
			itemResp.Addons = append(itemResp.Addons, dto.AddonResponse{
				Name:  a.Name,
				Price: money.Money(a.PriceCents).Float64(),
			})
		}
		response.Items = append(response.Items, itemResp)
	}

	return response
}
