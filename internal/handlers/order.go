package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mealcycle/apiserver/internal/audit"
	"github.com/mealcycle/apiserver/internal/metrics"
	"github.com/mealcycle/apiserver/internal/services"
	"github.com/mealcycle/apiserver/internal/store"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

// OrderHandler provides HTTP handlers for orders.
type OrderHandler struct {
	orderService *services.OrderService
	audit        *audit.Recorder
	log          zerolog.Logger
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orderService *services.OrderService, recorder *audit.Recorder, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		audit:        recorder,
		log:          log,
	}
}

// OrderRouter registers the customer-facing order routes.
func OrderRouter(r chi.Router, orderService *services.OrderService, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewOrderHandler(orderService, recorder, log)

	r.With(RequireAuth).Post("/", handler.PlaceOrder)
	r.With(RequireAuth).Get("/", handler.ListMyOrders)
	r.With(RequireAuth).Get("/{orderID}", handler.GetOrder)
}

// AdminOrderRouter registers the admin order routes behind the guard.
func AdminOrderRouter(r chi.Router, orderService *services.OrderService, guard *Guard, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewOrderHandler(orderService, recorder, log)

	r.With(guard.RequireAdmin("order.list", "order")).Get("/", handler.ListOrders)
	r.With(guard.RequireAdmin("order.stats", "order")).Get("/stats", handler.OrderStats)
	r.With(guard.RequireAdmin("order.status", "order")).Put("/{orderID}/status", handler.UpdateOrderStatus)
}

// PlaceOrderRequest is the order placement payload.
type PlaceOrderRequest struct {
	MenuID int                `json:"menu_id"`
	Items  []OrderLineRequest `json:"items"`
}

// OrderLineRequest is one requested line of a new order.
type OrderLineRequest struct {
	MenuItemID int `json:"menu_item_id"`
	Quantity   int `json:"quantity"`
}

// Parse validates the payload and converts it to service order lines.
func (req *PlaceOrderRequest) Parse() ([]services.OrderLine, error) {
	if req.MenuID < 1 {
		return nil, errors.New("menu_id is required")
	}
	if len(req.Items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}
	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		if item.MenuItemID < 1 {
			return nil, errors.New("menu_item_id is required")
		}
		if item.Quantity < 1 {
			return nil, errors.New("quantity must be at least 1")
		}
		lines = append(lines, services.OrderLine{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}
	return lines, nil
}

// PlaceOrder creates an order for the authenticated customer, drawing meal
// credits from their packs.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	lines, err := req.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.Place(r.Context(), principal.ID, req.MenuID, lines)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		if isRequestError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Int("user_id", principal.ID).Msg("order placement failed")
		writeError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	h.log.Info().
		Int("user_id", principal.ID).
		Int("order_id", order.ID).
		Int("total_meals", order.TotalMeals).
		Msg("order placed")
	metrics.OrderPlaced()
	writeSuccess(w, http.StatusCreated, order)
}

// ListMyOrders returns the authenticated customer's orders, newest first.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), principal.ID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", principal.ID).Msg("order list failed")
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	writeSuccess(w, http.StatusOK, orders)
}

// GetOrder returns one order. Customers may only read their own orders;
// admins may read any.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "orderID", "invalid order id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error().Err(err).Int("order_id", id).Msg("order fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	if order.UserID != principal.ID && !principal.IsAdmin() {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeSuccess(w, http.StatusOK, order)
}

// ListOrders returns all orders, optionally filtered by ?status=.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !types.ValidOrderStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	orders, err := h.orderService.List(r.Context(), status)
	if err != nil {
		h.log.Error().Err(err).Msg("admin order list failed")
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	writeSuccess(w, http.StatusOK, orders)
}

// UpdateOrderStatusRequest is the status change payload.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus assigns a new status to an order. The status must be a
// member of the status set; any jump between members is accepted. The old
// and new status are recorded in the audit log.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "orderID", "invalid order id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	if !types.ValidOrderStatus(req.Status) {
		h.audit.Reject(r.Context(), &principal.ID, "order.status", "order", strconv.Itoa(id), types.AuditOutcomeInvalid, fmt.Sprintf("invalid status %q", req.Status))
		writeError(w, http.StatusBadRequest, "Invalid status. Valid statuses: pending, confirmed, delivered, cancelled")
		return
	}

	order, oldStatus, err := h.orderService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.audit.Reject(r.Context(), &principal.ID, "order.status", "order", strconv.Itoa(id), types.AuditOutcomeNotFound, "order not found")
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error().Err(err).Int("order_id", id).Msg("order status update failed")
		h.audit.Reject(r.Context(), &principal.ID, "order.status", "order", strconv.Itoa(id), types.AuditOutcomeError, err.Error())
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	h.log.Info().
		Int("actor_id", principal.ID).
		Int("order_id", id).
		Str("old_status", oldStatus).
		Str("new_status", order.Status).
		Msg("order status updated")
	h.audit.Success(r.Context(), &principal.ID, "order.status", "order", strconv.Itoa(id), fmt.Sprintf("%s -> %s", oldStatus, order.Status))
	writeSuccess(w, http.StatusOK, order)
}

// OrderStats returns aggregate counts and revenue for the admin dashboard.
func (h *OrderHandler) OrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderService.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("order stats failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch order stats")
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}
