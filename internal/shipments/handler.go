package shipments

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

// Handler wires HTTP endpoints for shipment management.
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

// MountRoutes registers shipment routes on the provided router. The
// editGate guard wraps every mutating endpoint.
func (h *Handler) MountRoutes(r chi.Router, editGate func(http.Handler) http.Handler) {
	r.Get("/", h.handleList)
	r.With(editGate).Post("/", h.handleCreate)
	r.Route("/{shipmentID}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.With(editGate).Put("/", h.handleUpdate)
		r.With(editGate).Post("/status", h.handleStatus)
		r.With(editGate).Post("/cancel", h.handleCancel)
	})
}

type shipmentResponse struct {
	ID               int64           `json:"id"`
	ShipmentNumber   string          `json:"shipment_number"`
	ContractID       int64           `json:"contract_id"`
	AgencyID         int64           `json:"agency_id"`
	VesselName       string          `json:"vessel_name"`
	VoyageNumber     string          `json:"voyage_number"`
	CargoType        string          `json:"cargo_type"`
	CargoDescription string          `json:"cargo_description"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityUnit     string          `json:"quantity_unit"`
	LoadingPort      string          `json:"loading_port"`
	DischargePort    string          `json:"discharge_port"`
	LoadingDate      *time.Time      `json:"loading_date"`
	DischargeDate    *time.Time      `json:"discharge_date"`
	ETA              *time.Time      `json:"eta"`
	ATA              *time.Time      `json:"ata"`
	Status           Status          `json:"status"`
	Remarks          string          `json:"remarks"`
	CreatedBy        int64           `json:"created_by"`
	AssignedTo       int64           `json:"assigned_to,omitempty"`
	CancelledBy      int64           `json:"cancelled_by,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toResponse(s Shipment) shipmentResponse {
	return shipmentResponse{
		ID:               s.ID,
		ShipmentNumber:   s.ShipmentNumber,
		ContractID:       s.ContractID,
		AgencyID:         s.AgencyID,
		VesselName:       s.VesselName,
		VoyageNumber:     s.VoyageNumber,
		CargoType:        s.CargoType,
		CargoDescription: s.CargoDescription,
		Quantity:         s.Quantity,
		QuantityUnit:     s.QuantityUnit,
		LoadingPort:      s.LoadingPort,
		DischargePort:    s.DischargePort,
		LoadingDate:      s.LoadingDate,
		DischargeDate:    s.DischargeDate,
		ETA:              s.ETA,
		ATA:              s.ATA,
		Status:           s.Status,
		Remarks:          s.Remarks,
		CreatedBy:        s.CreatedBy,
		AssignedTo:       s.AssignedTo,
		CancelledBy:      s.CancelledBy,
		CancelledAt:      s.CancelledAt,
		CancelReason:     s.CancelReason,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type createRequest struct {
	ShipmentNumber   string          `json:"shipment_number" validate:"required"`
	ContractID       int64           `json:"contract_id" validate:"required,gt=0"`
	AgencyID         int64           `json:"agency_id" validate:"required,gt=0"`
	VesselName       string          `json:"vessel_name"`
	VoyageNumber     string          `json:"voyage_number"`
	CargoType        string          `json:"cargo_type"`
	CargoDescription string          `json:"cargo_description"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityUnit     string          `json:"quantity_unit"`
	LoadingPort      string          `json:"loading_port"`
	DischargePort    string          `json:"discharge_port"`
	LoadingDate      *time.Time      `json:"loading_date"`
	DischargeDate    *time.Time      `json:"discharge_date"`
	ETA              *time.Time      `json:"eta"`
	Remarks          string          `json:"remarks"`
	AssignedTo       int64           `json:"assigned_to"`
}

type updateRequest struct {
	VesselName       *string          `json:"vessel_name"`
	VoyageNumber     *string          `json:"voyage_number"`
	CargoType        *string          `json:"cargo_type"`
	CargoDescription *string          `json:"cargo_description"`
	Quantity         *decimal.Decimal `json:"quantity"`
	QuantityUnit     *string          `json:"quantity_unit"`
	LoadingPort      *string          `json:"loading_port"`
	DischargePort    *string          `json:"discharge_port"`
	LoadingDate      *time.Time       `json:"loading_date"`
	DischargeDate    *time.Time       `json:"discharge_date"`
	ETA              *time.Time       `json:"eta"`
	ATA              *time.Time       `json:"ata"`
	Remarks          *string          `json:"remarks"`
	AssignedTo       *int64           `json:"assigned_to"`
}

type statusRequest struct {
	Status  Status `json:"status" validate:"required"`
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
	out := make([]shipmentResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toResponse(s))
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
	shipment, err := h.service.Create(r.Context(), CreateInput{
		ShipmentNumber:   req.ShipmentNumber,
		ContractID:       req.ContractID,
		AgencyID:         req.AgencyID,
		VesselName:       req.VesselName,
		VoyageNumber:     req.VoyageNumber,
		CargoType:        req.CargoType,
		CargoDescription: req.CargoDescription,
		Quantity:         req.Quantity,
		QuantityUnit:     req.QuantityUnit,
		LoadingPort:      req.LoadingPort,
		DischargePort:    req.DischargePort,
		LoadingDate:      req.LoadingDate,
		DischargeDate:    req.DischargeDate,
		ETA:              req.ETA,
		Remarks:          req.Remarks,
		CreatedBy:        actor.UserID,
		AssignedTo:       req.AssignedTo,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.logger != nil {
		h.logger.Info("shipment created",
			slog.Int64("shipment_id", shipment.ID),
			slog.String("shipment_number", shipment.ShipmentNumber))
	}
	httpx.JSON(w, http.StatusCreated, toResponse(shipment))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	shipment, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(shipment))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	shipment, err := h.service.Update(r.Context(), id, UpdateInput{
		VesselName:       req.VesselName,
		VoyageNumber:     req.VoyageNumber,
		CargoType:        req.CargoType,
		CargoDescription: req.CargoDescription,
		Quantity:         req.Quantity,
		QuantityUnit:     req.QuantityUnit,
		LoadingPort:      req.LoadingPort,
		DischargePort:    req.DischargePort,
		LoadingDate:      req.LoadingDate,
		DischargeDate:    req.DischargeDate,
		ETA:              req.ETA,
		ATA:              req.ATA,
		Remarks:          req.Remarks,
		AssignedTo:       req.AssignedTo,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(shipment))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "status is required")
		return
	}

	actor, _ := shared.ActorFromContext(r.Context())
	shipment, err := h.service.Transition(r.Context(), id, req.Status, actor.UserID, req.Remarks)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(shipment))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
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
	shipment, err := h.service.Cancel(r.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(shipment))
}

func shipmentID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shipmentID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrValidation
	}
	return id, nil
}
