// Package httptransport is the thin HTTP layer. Handlers decode and validate
// request shapes, delegate to the domain services and translate coded errors
// into the JSON error envelope; no business logic lives here.
package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	occmodels "urec/internal/occupancy/models"
	dErrors "urec/pkg/domainerrors"
	"urec/pkg/httputil"
	"urec/pkg/requestcontext"
)

// OccupancyService is the counter core surface the transport needs.
type OccupancyService interface {
	Apply(ctx context.Context, areaID string, delta int) (*occmodels.State, error)
	Set(ctx context.Context, areaID string, value int) (*occmodels.State, error)
	Read(ctx context.Context, areaID string) (*occmodels.AreaView, error)
	ReadAll(ctx context.Context) ([]occmodels.AreaView, error)
}

// OccupancyHandler serves the public capacity and update endpoints plus the
// admin-gated reset.
type OccupancyHandler struct {
	occupancy OccupancyService
}

func NewOccupancyHandler(occupancy OccupancyService) *OccupancyHandler {
	return &OccupancyHandler{occupancy: occupancy}
}

// Register mounts the public occupancy routes.
func (h *OccupancyHandler) Register(r chi.Router) {
	r.Get("/api/capacity", h.handleCapacityAll)
	r.Get("/api/capacity/{areaID}", h.handleCapacityOne)
	r.Post("/api/update", h.handleUpdate)
}

// RegisterAdmin mounts the reset route; callers wrap the router with the
// admin token middleware.
func (h *OccupancyHandler) RegisterAdmin(r chi.Router) {
	r.Post("/api/reset/{areaID}", h.handleReset)
}

type updateResponse struct {
	Success   bool      `json:"success"`
	AreaID    string    `json:"area_id"`
	Action    string    `json:"action"`
	Count     int       `json:"count"`
	NewCount  int       `json:"new_count"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *OccupancyHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	delta, err := req.delta()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	state, err := h.occupancy.Apply(r.Context(), req.AreaID, delta)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updateResponse{
		Success:   true,
		AreaID:    state.AreaID,
		Action:    req.Action,
		Count:     req.count(),
		NewCount:  state.CurrentCount,
		Timestamp: state.LastUpdated,
	})
}

type resetResponse struct {
	Success   bool      `json:"success"`
	AreaID    string    `json:"area_id"`
	NewCount  int       `json:"new_count"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *OccupancyHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "areaID")

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "count must be an integer"))
			return
		}
		count = parsed
	}

	state, err := h.occupancy.Set(r.Context(), areaID, count)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resetResponse{
		Success:   true,
		AreaID:    state.AreaID,
		NewCount:  state.CurrentCount,
		Timestamp: state.LastUpdated,
	})
}

type capacityResponse struct {
	Timestamp time.Time            `json:"timestamp"`
	Areas     []occmodels.AreaView `json:"areas"`
}

func (h *OccupancyHandler) handleCapacityAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.occupancy.ReadAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, capacityResponse{
		Timestamp: requestcontext.Now(r.Context()),
		Areas:     views,
	})
}

func (h *OccupancyHandler) handleCapacityOne(w http.ResponseWriter, r *http.Request) {
	view, err := h.occupancy.Read(r.Context(), chi.URLParam(r, "areaID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}
