package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mealcycle/apiserver/internal/audit"
	"github.com/mealcycle/apiserver/internal/services"
	"github.com/mealcycle/apiserver/internal/storage"
	"github.com/mealcycle/apiserver/internal/store"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

const (
	dateLayout         = "2006-01-02"
	maxImageMemory     = 16 << 20
	maxImageBytes      = 8 << 20
	formFieldItemImage = "image"
)

// MenuHandler provides HTTP handlers for menus.
type MenuHandler struct {
	menuService *services.MenuService
	images      *storage.Storage
	audit       *audit.Recorder
	log         zerolog.Logger
}

// NewMenuHandler constructs a handler. images may be nil, disabling uploads.
func NewMenuHandler(menuService *services.MenuService, images *storage.Storage, recorder *audit.Recorder, log zerolog.Logger) *MenuHandler {
	return &MenuHandler{
		menuService: menuService,
		images:      images,
		audit:       recorder,
		log:         log,
	}
}

// MenuRouter registers the customer-facing menu routes.
func MenuRouter(r chi.Router, menuService *services.MenuService, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewMenuHandler(menuService, nil, recorder, log)

	r.With(RequireAuth).Get("/current", handler.GetCurrentMenu)
}

// AdminMenuRouter registers the admin menu routes behind the guard.
func AdminMenuRouter(r chi.Router, menuService *services.MenuService, images *storage.Storage, guard *Guard, recorder *audit.Recorder, log zerolog.Logger) {
	handler := NewMenuHandler(menuService, images, recorder, log)

	r.With(guard.RequireAdmin("menu.list", "menu")).Get("/", handler.ListMenus)
	r.With(guard.RequireAdmin("menu.create", "menu")).Post("/", handler.CreateMenu)
	r.With(guard.RequireAdmin("menu.status", "menu")).Get("/status", handler.MenuStatus)
	r.Route("/{menuID}", func(r chi.Router) {
		r.With(guard.RequireAdmin("menu.get", "menu")).Get("/", handler.GetMenu)
		r.With(guard.RequireAdmin("menu.update", "menu")).Put("/", handler.UpdateMenu)
		r.With(guard.RequireAdmin("menu.delete", "menu")).Delete("/", handler.DeleteMenu)
		r.With(guard.RequireAdmin("menu.publish", "menu")).Post("/publish", handler.PublishMenu)
		r.With(guard.RequireAdmin("menu.unpublish", "menu")).Post("/unpublish", handler.UnpublishMenu)
		r.With(guard.RequireAdmin("menu.item.image", "menu_item")).Post("/items/{itemID}/image", handler.UploadItemImage)
	})
}

// GetCurrentMenu returns the published menu for the customer dashboard.
func (h *MenuHandler) GetCurrentMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.menuService.GetCurrent(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no menu is currently published")
			return
		}
		h.log.Error().Err(err).Msg("current menu fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch menu")
		return
	}
	writeSuccess(w, http.StatusOK, menu)
}

func (h *MenuHandler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.menuService.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("menu list failed")
		writeError(w, http.StatusInternalServerError, "failed to list menus")
		return
	}
	writeSuccess(w, http.StatusOK, menus)
}

func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	menu, err := h.menuService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		h.log.Error().Err(err).Int("menu_id", id).Msg("menu fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch menu")
		return
	}
	writeSuccess(w, http.StatusOK, menu)
}

// MenuUpsertRequest is the create/update payload for a menu.
type MenuUpsertRequest struct {
	WeekStartDate string                  `json:"week_start_date"`
	WeekEndDate   string                  `json:"week_end_date"`
	Items         []MenuItemUpsertRequest `json:"items"`
}

// MenuItemUpsertRequest is one dish in a menu payload.
type MenuItemUpsertRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	IsAvailable *bool   `json:"is_available"`
}

// Parse validates the payload and converts it to a domain menu.
func (req *MenuUpsertRequest) Parse() (types.Menu, error) {
	start, err := time.Parse(dateLayout, req.WeekStartDate)
	if err != nil {
		return types.Menu{}, errors.New("invalid week_start_date, expected YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.WeekEndDate)
	if err != nil {
		return types.Menu{}, errors.New("invalid week_end_date, expected YYYY-MM-DD")
	}

	menu := types.Menu{
		WeekStartDate: start,
		WeekEndDate:   end,
	}
	for _, item := range req.Items {
		if item.Name == "" {
			return types.Menu{}, errors.New("menu item name is required")
		}
		if item.Price < 0 {
			return types.Menu{}, errors.New("menu item price cannot be negative")
		}
		available := true
		if item.IsAvailable != nil {
			available = *item.IsAvailable
		}
		menu.Items = append(menu.Items, types.MenuItem{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Category:    item.Category,
			IsAvailable: available,
		})
	}
	return menu, nil
}

func (h *MenuHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req MenuUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	menu, err := req.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	menu.CreatedBy = principal.ID

	created, err := h.menuService.Create(r.Context(), menu)
	if err != nil {
		h.serviceFailure(w, r, err, principal.ID, "menu.create", "", "failed to create menu")
		return
	}

	h.log.Info().Int("actor_id", principal.ID).Int("menu_id", created.ID).Msg("menu created")
	h.audit.Success(r.Context(), &principal.ID, "menu.create", "menu", strconv.Itoa(created.ID), "draft created")
	writeSuccess(w, http.StatusCreated, created)
}

func (h *MenuHandler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MenuUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	menu, err := req.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	menu.ID = id

	updated, err := h.menuService.Update(r.Context(), menu)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		h.serviceFailure(w, r, err, principal.ID, "menu.update", strconv.Itoa(id), "failed to update menu")
		return
	}

	h.log.Info().Int("actor_id", principal.ID).Int("menu_id", id).Msg("menu updated")
	h.audit.Success(r.Context(), &principal.ID, "menu.update", "menu", strconv.Itoa(id), "week range updated")
	writeSuccess(w, http.StatusOK, updated)
}

func (h *MenuHandler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.menuService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		h.serviceFailure(w, r, err, principal.ID, "menu.delete", strconv.Itoa(id), "failed to delete menu")
		return
	}

	h.log.Info().Int("actor_id", principal.ID).Int("menu_id", id).Msg("menu deleted")
	h.audit.Success(r.Context(), &principal.ID, "menu.delete", "menu", strconv.Itoa(id), "menu removed")
	w.WriteHeader(http.StatusNoContent)
}

// PublishMenu makes the target the single published menu. The unpublish of
// every other menu and the publish of the target commit together.
func (h *MenuHandler) PublishMenu(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	menu, err := h.menuService.Publish(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.audit.Reject(r.Context(), &principal.ID, "menu.publish", "menu", strconv.Itoa(id), types.AuditOutcomeNotFound, "menu not found")
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		h.serviceFailure(w, r, err, principal.ID, "menu.publish", strconv.Itoa(id), "failed to publish menu")
		return
	}

	h.log.Info().Int("actor_id", principal.ID).Int("menu_id", id).Msg("menu published")
	h.audit.Success(r.Context(), &principal.ID, "menu.publish", "menu", strconv.Itoa(id), "is_published=true")
	writeSuccess(w, http.StatusOK, menu)
}

func (h *MenuHandler) UnpublishMenu(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	menu, err := h.menuService.Unpublish(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "menu not found")
			return
		}
		h.serviceFailure(w, r, err, principal.ID, "menu.unpublish", strconv.Itoa(id), "failed to unpublish menu")
		return
	}

	h.log.Info().Int("actor_id", principal.ID).Int("menu_id", id).Msg("menu unpublished")
	h.audit.Success(r.Context(), &principal.ID, "menu.unpublish", "menu", strconv.Itoa(id), "is_published=false")
	writeSuccess(w, http.StatusOK, menu)
}

func (h *MenuHandler) MenuStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.menuService.StatusSummary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("menu status summary failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch menu status")
		return
	}
	writeSuccess(w, http.StatusOK, summary)
}

// UploadItemImage stores a dish photo in object storage and records its key.
func (h *MenuHandler) UploadItemImage(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}

	menuID, err := parseMenuID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := parsePathID(r, "itemID", "invalid item id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldItemImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		writeError(w, http.StatusBadRequest, "image too large")
		return
	}

	key := storage.ItemImageKey(menuID, itemID, path.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if err := h.images.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("image upload failed")
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	if err := h.menuService.SetItemImage(r.Context(), menuID, itemID, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "menu item not found")
			return
		}
		h.serviceFailure(w, r, err, principal.ID, "menu.item.image", strconv.Itoa(itemID), "failed to update menu item")
		return
	}

	h.audit.Success(r.Context(), &principal.ID, "menu.item.image", "menu_item", strconv.Itoa(itemID), fmt.Sprintf("image_key=%s", key))
	writeSuccess(w, http.StatusOK, map[string]string{"image_key": key})
}

// serviceFailure maps unexpected service errors: validation surfaces as a
// 400, everything else is a logged and audited 500.
func (h *MenuHandler) serviceFailure(w http.ResponseWriter, r *http.Request, err error, actorID int, action, resourceID, fallback string) {
	if isRequestError(err) {
		writeServiceError(w, err, fallback)
		return
	}
	h.log.Error().Err(err).Str("action", action).Msg("menu operation failed")
	h.audit.Reject(r.Context(), &actorID, action, "menu", resourceID, types.AuditOutcomeError, err.Error())
	writeError(w, http.StatusInternalServerError, fallback)
}

func parseMenuID(r *http.Request) (int, error) {
	return parsePathID(r, "menuID", "invalid menu id")
}

func parsePathID(r *http.Request, param, message string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New(message)
	}
	return id, nil
}
