package finance

import (
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

// Handler wires HTTP endpoints for financial transactions.
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

// MountRoutes registers transaction routes on the provided router. The
// editGate guard wraps mutating endpoints and the approveGate guard
// wraps the approval and payment decisions.
func (h *Handler) MountRoutes(r chi.Router, editGate, approveGate func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.With(editGate).Post("/", h.handleCreate)
	r.Get("/overdue", h.handleOverdue)
	r.Route("/{transactionID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.With(editGate).Put("/", h.handleUpdate)
		r.With(approveGate).Post("/approve", h.handleApprove)
		r.With(approveGate).Post("/pay", h.handlePay)
		r.With(editGate).Post("/cancel", h.handleCancel)
	})
}

type transactionResponse struct {
	ID                int64           `json:"id"`
	TransactionNumber string          `json:"transaction_number"`
	Type              Type            `json:"type"`
	ContractID        int64           `json:"contract_id,omitempty"`
	ShipmentID        int64           `json:"shipment_id,omitempty"`
	AgencyID          int64           `json:"agency_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Tax               decimal.Decimal `json:"tax"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	Currency          string          `json:"currency"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	AmountLocal       decimal.Decimal `json:"amount_local"`
	DueDate           *time.Time      `json:"due_date"`
	PaymentDate       *time.Time      `json:"payment_date"`
	PaymentMethod     string          `json:"payment_method"`
	Status            Status          `json:"status"`
	Description       string          `json:"description"`
	Notes             string          `json:"notes"`
	ReminderSent      bool            `json:"reminder_sent"`
	ReminderCount     int             `json:"reminder_count"`
	LastReminderAt    *time.Time      `json:"last_reminder_at"`
	CreatedBy         int64           `json:"created_by"`
	ApprovedBy        int64           `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at"`
	CancelledBy       int64           `json:"cancelled_by,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		TransactionNumber: t.TransactionNumber,
		Type:              t.Type,
		ContractID:        t.ContractID,
		ShipmentID:        t.ShipmentID,
		AgencyID:          t.AgencyID,
		Amount:            t.Amount,
		Tax:               t.Tax,
		Discount:          t.Discount,
		Total:             t.Total,
		Currency:          t.Currency,
		ExchangeRate:      t.ExchangeRate,
		AmountLocal:       t.AmountLocal,
		DueDate:           t.DueDate,
		PaymentDate:       t.PaymentDate,
		PaymentMethod:     t.PaymentMethod,
		Status:            t.Status,
		Description:       t.Description,
		Notes:             t.Notes,
		ReminderSent:      t.ReminderSent,
		ReminderCount:     t.ReminderCount,
		LastReminderAt:    t.LastReminderAt,
		CreatedBy:         t.CreatedBy,
		ApprovedBy:        t.ApprovedBy,
		ApprovedAt:        t.ApprovedAt,
		CancelledBy:       t.CancelledBy,
		CancelledAt:       t.CancelledAt,
		CancelReason:      t.CancelReason,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

type createRequest struct {
	TransactionNumber string          `json:"transaction_number" validate:"required"`
	Type              Type            `json:"type" validate:"required"`
	ContractID        int64           `json:"contract_id"`
	ShipmentID        int64           `json:"shipment_id"`
	AgencyID          int64           `json:"agency_id"`
	Amount            decimal.Decimal `json:"amount"`
	Tax               decimal.Decimal `json:"tax"`
	Discount          decimal.Decimal `json:"discount"`
	Currency          string          `json:"currency" validate:"omitempty,len=3"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	DueDate           *time.Time      `json:"due_date"`
	PaymentMethod     string          `json:"payment_method"`
	Description       string          `json:"description"`
	Notes             string          `json:"notes"`
}

type updateRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	Tax           *decimal.Decimal `json:"tax"`
	Discount      *decimal.Decimal `json:"discount"`
	Currency      *string          `json:"currency" validate:"omitempty,len=3"`
	ExchangeRate  *decimal.Decimal `json:"exchange_rate"`
	DueDate       *time.Time       `json:"due_date"`
	PaymentMethod *string          `json:"payment_method"`
	Description   *string          `json:"description"`
	Notes         *string          `json:"notes"`
}

type payRequest struct {
	PaymentMethod string     `json:"payment_method"`
	PaymentDate   *time.Time `json:"payment_date"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Type:   Type(q.Get("type")),
		Status: Status(q.Get("status")),
	}
	filters.ContractID, _ = strconv.ParseInt(q.Get("contract_id"), 10, 64)
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
	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListOverdue(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
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
	tr, err := h.service.Create(r.Context(), CreateInput{
		TransactionNumber: req.TransactionNumber,
		Type:              req.Type,
		ContractID:        req.ContractID,
		ShipmentID:        req.ShipmentID,
		AgencyID:          req.AgencyID,
		Amount:            req.Amount,
		Tax:               req.Tax,
		Discount:          req.Discount,
		Currency:          req.Currency,
		ExchangeRate:      req.ExchangeRate,
		DueDate:           req.DueDate,
		PaymentMethod:     req.PaymentMethod,
		Description:       req.Description,
		Notes:             req.Notes,
		CreatedBy:         actor.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.logger != nil {
		h.logger.Info("transaction created",
			slog.Int64("transaction_id", tr.ID),
			slog.String("transaction_number", tr.TransactionNumber),
			slog.String("type", string(tr.Type)))
	}
	httpx.JSON(w, http.StatusCreated, toResponse(tr))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tr, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tr))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
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

	tr, err := h.service.Update(r.Context(), id, UpdateInput{
		Amount:        req.Amount,
		Tax:           req.Tax,
		Discount:      req.Discount,
		Currency:      req.Currency,
		ExchangeRate:  req.ExchangeRate,
		DueDate:       req.DueDate,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		Notes:         req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tr))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	tr, err := h.service.Approve(r.Context(), id, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tr))
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req payRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && r.ContentLength > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	tr, err := h.service.MarkPaid(r.Context(), id, actor.UserID, req.PaymentMethod, req.PaymentDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tr))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := transactionID(r)
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
	tr, err := h.service.Cancel(r.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tr))
}

func transactionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
