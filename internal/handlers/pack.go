package handlers

import (
	"encoding/json"
	"errors"
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

// PackHandler provides HTTP handlers for meal packs and pack templates.
type PackHandler struct {
	packService *services.PackService
	audit       *audit.Recorder
	log         zerolog.Logger
}

// NewPackHandler constructs a PackHandler.
func NewPackHandler(packService *services.PackService, recorder *audit.Recorder, log zerolog.Logger) *PackHandler {
	return &PackHandler{
		packService: packService,
		audit:       recorder,
		log:         log,
	}
}

// PackRouter registers the customer-facing pack routes.
func PackRouter(r chi.Router, packService *services.PackService, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewPackHandler(packService, recorder, log)

	r.With(RequireAuth).Post("/purchase", handler.PurchasePack)
	r.With(RequireAuth).Get("/", handler.ListMyPacks)
	r.With(RequireAuth).Get("/balance", handler.Balance)
}

// AdminPackRouter registers the admin pack template routes behind the guard.
func AdminPackRouter(r chi.Router, packService *services.PackService, guard *Guard, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewPackHandler(packService, recorder, log)

	r.With(guard.RequireAdmin("pack.template.list", "pack_template")).Get("/", handler.ListTemplates)
	r.With(guard.RequireAdmin("pack.template.create", "pack_template")).Post("/", handler.CreateTemplate)
	r.With(guard.RequireAdmin("pack.template.update", "pack_template")).Put("/{templateID}", handler.UpdateTemplate)
}

// PurchasePackRequest is the purchase payload. UserID must match the
// session's principal; a mismatch is rejected before any other check.
type PurchasePackRequest struct {
	UserID   int `json:"userId"`
	PackSize int `json:"packSize"`
}

// PurchasePackResponse wraps the purchased pack.
type PurchasePackResponse struct {
	Success bool           `json:"success"`
	Pack    types.MealPack `json:"pack"`
	Message string         `json:"message"`
}

// BalanceResponse carries the summed credit balance.
type BalanceResponse struct {
	Success bool `json:"success"`
	Balance int  `json:"balance"`
}

// PurchasePack creates a meal pack with a full balance for the customer.
func (h *PackHandler) PurchasePack(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PurchasePackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.UserID != principal.ID {
		h.log.Warn().
			Int("actor_id", principal.ID).
			Int("requested_user_id", req.UserID).
			Msg("pack purchase user mismatch")
		writeError(w, http.StatusUnauthorized, "USER_MISMATCH")
		return
	}

	pack, err := h.packService.Purchase(r.Context(), principal.ID, req.PackSize)
	if err != nil {
		if isRequestError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Int("user_id", principal.ID).Msg("pack purchase failed")
		writeError(w, http.StatusInternalServerError, "failed to purchase pack")
		return
	}

	h.log.Info().
		Int("user_id", principal.ID).
		Int("pack_id", pack.ID).
		Int("pack_size", pack.PackSize).
		Msg("pack purchased")
	metrics.PackPurchased()
	writeJSON(w, http.StatusCreated, PurchasePackResponse{
		Success: true,
		Pack:    pack,
		Message: "Pack purchased successfully",
	})
}

// ListMyPacks returns the customer's packs, newest first.
func (h *PackHandler) ListMyPacks(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	packs, err := h.packService.ListByUser(r.Context(), principal.ID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", principal.ID).Msg("pack list failed")
		writeError(w, http.StatusInternalServerError, "failed to list packs")
		return
	}
	writeSuccess(w, http.StatusOK, packs)
}

// Balance returns the customer's remaining meal credits summed across
// active, unexpired packs.
func (h *PackHandler) Balance(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	balance, err := h.packService.Balance(r.Context(), principal.ID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", principal.ID).Msg("balance fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch balance")
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Success: true, Balance: balance})
}

func (h *PackHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.packService.ListTemplates(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("pack template list failed")
		writeError(w, http.StatusInternalServerError, "failed to list pack templates")
		return
	}
	writeSuccess(w, http.StatusOK, templates)
}

// PackTemplateRequest is the create/update payload for a pack template.
type PackTemplateRequest struct {
	Name        string  `json:"name"`
	Size        int     `json:"size"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (req *PackTemplateRequest) toTemplate() types.PackTemplate {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return types.PackTemplate{
		Name:        req.Name,
		Size:        req.Size,
		Price:       req.Price,
		Description: req.Description,
		IsActive:    active,
	}
}

func (h *PackHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PackTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	template, err := h.packService.CreateTemplate(r.Context(), req.toTemplate())
	if err != nil {
		if isRequestError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("pack template create failed")
		writeError(w, http.StatusInternalServerError, "failed to create pack template")
		return
	}

	h.audit.Success(r.Context(), &principal.ID, "pack.template.create", "pack_template", strconv.Itoa(template.ID), template.Name)
	writeSuccess(w, http.StatusCreated, template)
}

func (h *PackHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePathID(r, "templateID", "invalid template id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PackTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	template := req.toTemplate()
	template.ID = id

	updated, err := h.packService.UpdateTemplate(r.Context(), template)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pack template not found")
			return
		}
		if isRequestError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Int("template_id", id).Msg("pack template update failed")
		writeError(w, http.StatusInternalServerError, "failed to update pack template")
		return
	}

	h.audit.Success(r.Context(), &principal.ID, "pack.template.update", "pack_template", strconv.Itoa(id), updated.Name)
	writeSuccess(w, http.StatusOK, updated)
}
