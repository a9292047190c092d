package workflow

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Handler exposes read-only workflow history endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers workflow history routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleTimeline)
	r.Get("/{entityType}/{entityID}", h.handleEntityTimeline)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := TimelineFilters{
		EntityType: q.Get("entity_type"),
		Action:     q.Get("action"),
	}
	filters.EntityID, _ = strconv.ParseInt(q.Get("entity_id"), 10, 64)
	filters.UserID, _ = strconv.ParseInt(q.Get("user_id"), 10, 64)
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("per_page"))

	entries, pagination, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      entries,
		"pagination": pagination,
	})
}

func (h *Handler) handleEntityTimeline(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID <= 0 {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	entries, pagination, err := h.service.EntityTimeline(r.Context(), entityType, entityID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      entries,
		"pagination": pagination,
	})
}
