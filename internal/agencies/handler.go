package agencies

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

// Handler wires HTTP endpoints for agency management.
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

// MountRoutes registers agency routes on the provided router. The
// editGate guard wraps every mutating endpoint.
func (h *Handler) MountRoutes(r chi.Router, editGate func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.With(editGate).Post("/", h.handleCreate)
	r.Route("/{agencyID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.With(editGate).Put("/", h.handleUpdate)
		r.With(editGate).Delete("/", h.handleDelete)
	})
}

type agencyResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	ContactPerson string    `json:"contact_person"`
	TaxID         string    `json:"tax_id"`
	PaymentTerms  int       `json:"payment_terms"`
	IsActive      bool      `json:"is_active"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(a Agency) agencyResponse {
	return agencyResponse{
		ID:            a.ID,
		Name:          a.Name,
		Code:          a.Code,
		Address:       a.Address,
		City:          a.City,
		Country:       a.Country,
		Phone:         a.Phone,
		Email:         a.Email,
		ContactPerson: a.ContactPerson,
		TaxID:         a.TaxID,
		PaymentTerms:  a.PaymentTerms,
		IsActive:      a.IsActive,
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type createRequest struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required,min=2,max=16"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	ContactPerson string `json:"contact_person"`
	TaxID         string `json:"tax_id"`
	PaymentTerms  int    `json:"payment_terms" validate:"gte=0"`
}

type updateRequest struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	Country       *string `json:"country"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	ContactPerson *string `json:"contact_person"`
	TaxID         *string `json:"tax_id"`
	PaymentTerms  *int    `json:"payment_terms" validate:"omitempty,gte=0"`
	IsActive      *bool   `json:"is_active"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Search:          q.Get("search"),
		Country:         q.Get("country"),
		IncludeInactive: q.Get("include_inactive") == "true",
	}
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
	out := make([]agencyResponse, 0, len(items))
	for _, a := range items {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
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
	agency, err := h.service.Create(r.Context(), CreateInput{
		Name:          req.Name,
		Code:          req.Code,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Phone:         req.Phone,
		Email:         req.Email,
		ContactPerson: req.ContactPerson,
		TaxID:         req.TaxID,
		PaymentTerms:  req.PaymentTerms,
		CreatedBy:     actor.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.logger != nil {
		h.logger.Info("agency created",
			slog.Int64("agency_id", agency.ID),
			slog.String("code", agency.Code))
	}
	httpx.JSON(w, http.StatusCreated, toResponse(agency))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := agencyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	agency, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agency))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := agencyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	agency, err := h.service.Update(r.Context(), id, UpdateInput{
		Name:          req.Name,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Phone:         req.Phone,
		Email:         req.Email,
		ContactPerson: req.ContactPerson,
		TaxID:         req.TaxID,
		PaymentTerms:  req.PaymentTerms,
		IsActive:      req.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agency))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := agencyID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func agencyID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "agencyID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
