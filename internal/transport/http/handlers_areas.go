package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"urec/internal/registry/models"
	dErrors "urec/pkg/domainerrors"
	"urec/pkg/httputil"
)

// RegistryService is the area lifecycle surface the transport needs.
type RegistryService interface {
	CreateArea(ctx context.Context, id, name string, maxCapacity int) (*models.Area, error)
	GetArea(ctx context.Context, id string) (*models.Area, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
	UpdateArea(ctx context.Context, id string, upd models.Update) (*models.Area, error)
}

// AreaHandler serves the admin area CRUD endpoints.
type AreaHandler struct {
	registry RegistryService
}

func NewAreaHandler(registry RegistryService) *AreaHandler {
	return &AreaHandler{registry: registry}
}

// RegisterAdmin mounts the area management routes; callers wrap the router
// with the admin token middleware.
func (h *AreaHandler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/areas", h.handleCreate)
	r.Get("/admin/areas", h.handleList)
	r.Get("/admin/areas/{areaID}", h.handleGet)
	r.Patch("/admin/areas/{areaID}", h.handleUpdate)
}

func (h *AreaHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	area, err := h.registry.CreateArea(r.Context(), req.AreaID, req.Name, req.MaxCapacity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, area)
}

func (h *AreaHandler) handleList(w http.ResponseWriter, r *http.Request) {
	areas, err := h.registry.ListAreas(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"areas": areas})
}

func (h *AreaHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	area, err := h.registry.GetArea(r.Context(), chi.URLParam(r, "areaID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, area)
}

func (h *AreaHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	area, err := h.registry.UpdateArea(r.Context(), chi.URLParam(r, "areaID"), req.toModel())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, area)
}
