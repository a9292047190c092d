package documents

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Handler wires HTTP endpoints for document metadata.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers document routes on the provided router. The
// editGate guard wraps every mutating endpoint.
func (h *Handler) MountRoutes(r chi.Router, editGate func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.With(editGate).Post("/", h.handleCreate)
	r.Get("/entity/{entityType}/{entityID}", h.handleListForEntity)
	r.Route("/{documentID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.With(editGate).Put("/", h.handleUpdate)
		r.With(editGate).Delete("/", h.handleDelete)
	})
}

type documentResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    int64     `json:"entity_id,omitempty"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(d Document) documentResponse {
	return documentResponse{
		ID:          d.ID,
		Name:        d.Name,
		FilePath:    d.FilePath,
		FileSize:    d.FileSize,
		MimeType:    d.MimeType,
		EntityType:  d.EntityType,
		EntityID:    d.EntityID,
		Category:    d.Category,
		Description: d.Description,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type createRequest struct {
	Name        string `json:"name" validate:"required"`
	FilePath    string `json:"file_path" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"gte=0"`
	MimeType    string `json:"mime_type"`
	EntityType  string `json:"entity_type"`
	EntityID    int64  `json:"entity_id"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		EntityType: q.Get("entity_type"),
		Category:   q.Get("category"),
	}
	filters.EntityID, _ = strconv.ParseInt(q.Get("entity_id"), 10, 64)
	filters.UploadedBy, _ = strconv.ParseInt(q.Get("uploaded_by"), 10, 64)
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PerPage < 1 || filters.PerPage > 100 {
		filters.PerPage = 20
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, items, filters.Page, filters.PerPage, total)
}

func (h *Handler) handleListForEntity(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID, _ := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := h.service.ListForEntity(r.Context(), entityType, entityID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, items, page, perPage, total)
}

func (h *Handler) respondList(w http.ResponseWriter, items []Document, page, perPage, total int) {
	out := make([]documentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toResponse(d))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	doc, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		FilePath:    req.FilePath,
		FileSize:    req.FileSize,
		MimeType:    req.MimeType,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Category:    req.Category,
		Description: req.Description,
		UploadedBy:  actor.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.logger != nil {
		h.logger.Info("document created",
			slog.Int64("document_id", doc.ID),
			slog.String("name", doc.Name))
	}
	httpx.JSON(w, http.StatusCreated, toResponse(doc))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	doc, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := documentID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func documentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
