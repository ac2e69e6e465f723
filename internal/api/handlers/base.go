package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tabsplit/tabsplit-backend/internal/api/dto"
	"github.com/tabsplit/tabsplit-backend/internal/application/service"
	"github.com/tabsplit/tabsplit-backend/internal/domain/money"
	"github.com/tabsplit/tabsplit-backend/internal/domain/reconcile"
	"github.com/tabsplit/tabsplit-backend/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc *service.OrderService
}

// NewBase creates a new base handler with the given service.
func NewBase(svc *service.OrderService) *Base {
	return &Base{svc: svc}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(w http.ResponseWriter, status int, err dto.APIError) {
	b.WriteJSON(w, status, err)
}

// WriteServiceError maps service-layer errors onto HTTP responses.
func (b *Base) WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("order"))
	case errors.Is(err, service.ErrNoReceipt):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("receipt"))
	case errors.Is(err, service.ErrItemNotFound):
		b.WriteError(w, http.StatusNotFound, dto.NotFoundError("item"))
	case errors.Is(err, service.ErrOrderNotOpen),
		errors.Is(err, service.ErrOrderNotClosed),
		errors.Is(err, service.ErrOrderFinal),
		errors.Is(err, service.ErrNotItemOwner):
		b.WriteError(w, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, service.ErrNotSettled):
		b.WriteError(w, http.StatusConflict, dto.UnbalancedError(err.Error()))
	case errors.Is(err, service.ErrUnknownMember),
		errors.Is(err, service.ErrNoMembers),
		errors.Is(err, reconcile.ErrUnknownItem),
		errors.Is(err, money.ErrInvalidAmount):
		b.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
	default:
		b.WriteError(w, http.StatusInternalServerError, dto.InternalError())
	}
}

// DecodeJSON decodes a request body, writing a bad request response on failure.
func (b *Base) DecodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		b.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return false
	}
	return true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
