package contracts

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/shared"
)

// Handler wires HTTP endpoints for contract management.
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

// MountRoutes registers contract routes on the provided router. The
// editGate guard wraps mutating endpoints and the approveGate guard
// wraps approval decisions and overall lifecycle transitions.
func (h *Handler) MountRoutes(r chi.Router, editGate, approveGate func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.With(editGate).Post("/", h.handleCreate)
	r.Route("/{contractID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.With(editGate).Put("/", h.handleUpdate)
		r.With(editGate).Post("/cancel", h.handleCancel)
		r.Route("/tracks/{department}", func(r chi.Router) {
			r.With(editGate).Post("/submit", h.handleSubmitTrack)
			r.With(approveGate).Post("/approve", h.handleApproveTrack)
			r.With(approveGate).Post("/reject", h.handleRejectTrack)
		})
		r.With(approveGate).Post("/activate", h.handleActivate)
		r.With(approveGate).Post("/complete", h.handleComplete)
		r.With(approveGate).Post("/expire", h.handleExpire)
	})
}

type trackResponse struct {
	Status     TrackStatus `json:"status"`
	Remarks    string      `json:"remarks"`
	AssignedTo int64       `json:"assigned_to,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at"`
}

type contractResponse struct {
	ID             int64           `json:"id"`
	ContractNumber string          `json:"contract_number"`
	AgencyID       int64           `json:"agency_id"`
	AgencyName     string          `json:"agency_name"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	StartDate      *time.Time      `json:"start_date"`
	EndDate        *time.Time      `json:"end_date"`
	TotalValue     decimal.Decimal `json:"total_value"`
	Currency       string          `json:"currency"`
	PaymentTerms   int             `json:"payment_terms"`
	Status         Status          `json:"status"`
	Marketing      trackResponse   `json:"marketing"`
	Operation      trackResponse   `json:"operation"`
	Finance        trackResponse   `json:"finance"`
	CreatedBy      int64           `json:"created_by"`
	ApprovedBy     int64           `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	CancelledBy    int64           `json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toTrackResponse(t Track) trackResponse {
	return trackResponse{
		Status:     t.Status,
		Remarks:    t.Remarks,
		AssignedTo: t.AssignedTo,
		UpdatedAt:  t.UpdatedAt,
	}
}

func toResponse(c Contract) contractResponse {
	return contractResponse{
		ID:             c.ID,
		ContractNumber: c.ContractNumber,
		AgencyID:       c.AgencyID,
		AgencyName:     c.AgencyName,
		Title:          c.Title,
		Description:    c.Description,
		Type:           c.Type,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		TotalValue:     c.TotalValue,
		Currency:       c.Currency,
		PaymentTerms:   c.PaymentTerms,
		Status:         c.Status,
		Marketing:      toTrackResponse(c.Marketing),
		Operation:      toTrackResponse(c.Operation),
		Finance:        toTrackResponse(c.Finance),
		CreatedBy:      c.CreatedBy,
		ApprovedBy:     c.ApprovedBy,
		ApprovedAt:     c.ApprovedAt,
		CancelledBy:    c.CancelledBy,
		CancelledAt:    c.CancelledAt,
		CancelReason:   c.CancelReason,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type createRequest struct {
	ContractNumber string          `json:"contract_number" validate:"required"`
	AgencyID       int64           `json:"agency_id" validate:"required,gt=0"`
	Title          string          `json:"title" validate:"required"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	StartDate      *time.Time      `json:"start_date"`
	EndDate        *time.Time      `json:"end_date"`
	TotalValue     decimal.Decimal `json:"total_value"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	PaymentTerms   int             `json:"payment_terms" validate:"gte=0"`
}

type updateRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Type         *string          `json:"type"`
	StartDate    *time.Time       `json:"start_date"`
	EndDate      *time.Time       `json:"end_date"`
	TotalValue   *decimal.Decimal `json:"total_value"`
	Currency     *string          `json:"currency" validate:"omitempty,len=3"`
	PaymentTerms *int             `json:"payment_terms" validate:"omitempty,gte=0"`
}

type remarksRequest struct {
	Remarks string `json:"remarks"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
	}
	filters.AgencyID, _ = strconv.ParseInt(q.Get("agency_id"), 10, 64)
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
	out := make([]contractResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toResponse(c))
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
	contract, err := h.service.Create(r.Context(), CreateInput{
		ContractNumber: req.ContractNumber,
		AgencyID:       req.AgencyID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TotalValue:     req.TotalValue,
		Currency:       req.Currency,
		PaymentTerms:   req.PaymentTerms,
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.logger != nil {
		h.logger.Info("contract created",
			slog.Int64("contract_id", contract.ID),
			slog.String("contract_number", contract.ContractNumber))
	}
	httpx.JSON(w, http.StatusCreated, toResponse(contract))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	contract, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
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

	contract, err := h.service.Update(r.Context(), id, UpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		TotalValue:   req.TotalValue,
		Currency:     req.Currency,
		PaymentTerms: req.PaymentTerms,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func (h *Handler) handleSubmitTrack(w http.ResponseWriter, r *http.Request) {
	h.trackAction(w, r, h.service.SubmitTrack)
}

func (h *Handler) handleApproveTrack(w http.ResponseWriter, r *http.Request) {
	h.trackAction(w, r, h.service.ApproveTrack)
}

func (h *Handler) handleRejectTrack(w http.ResponseWriter, r *http.Request) {
	h.trackAction(w, r, h.service.RejectTrack)
}

type trackFunc func(ctx context.Context, id int64, dept Department, actorID int64, remarks string) (Contract, error)

func (h *Handler) trackAction(w http.ResponseWriter, r *http.Request, fn trackFunc) {
	id, err := contractID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dept := Department(chi.URLParam(r, "department"))

	var req remarksRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && r.ContentLength > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	contract, err := fn(r.Context(), id, dept, actor.UserID, req.Remarks)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req cancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "reason is required")
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	contract, err := h.service.Cancel(r.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.overallAction(w, r, h.service.Activate)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.overallAction(w, r, h.service.Complete)
}

func (h *Handler) handleExpire(w http.ResponseWriter, r *http.Request) {
	h.overallAction(w, r, h.service.Expire)
}

func (h *Handler) overallAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actorID int64) (Contract, error)) {
	id, err := contractID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	contract, err := fn(r.Context(), id, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(contract))
}

func contractID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contractID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
