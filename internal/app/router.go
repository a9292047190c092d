package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/samudra-erp/samudra-erp/internal/agencies"
	"github.com/samudra-erp/samudra-erp/internal/auth"
	"github.com/samudra-erp/samudra-erp/internal/contracts"
	"github.com/samudra-erp/samudra-erp/internal/documents"
	"github.com/samudra-erp/samudra-erp/internal/finance"
	"github.com/samudra-erp/samudra-erp/internal/notifications"
	"github.com/samudra-erp/samudra-erp/internal/observability"
	"github.com/samudra-erp/samudra-erp/internal/platform/httpx"
	"github.com/samudra-erp/samudra-erp/internal/roles"
	"github.com/samudra-erp/samudra-erp/internal/shipments"
	"github.com/samudra-erp/samudra-erp/internal/users"
	"github.com/samudra-erp/samudra-erp/internal/workflow"
	"github.com/samudra-erp/samudra-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	AuthMiddleware       auth.Middleware
	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	RolesHandler         *roles.Handler
	AgenciesHandler      *agencies.Handler
	ContractsHandler     *contracts.Handler
	ShipmentsHandler     *shipments.Handler
	FinanceHandler       *finance.Handler
	DocumentsHandler     *documents.Handler
	NotificationsHandler *notifications.Handler
	WorkflowHandler      *workflow.Handler
	JobsClient           *jobs.Client
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Samudra defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	authMW := params.AuthMiddleware

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireUser)

			manageUsers := authMW.RequirePermission("users:manage")
			if params.UsersHandler != nil {
				r.Route("/users", func(r chi.Router) {
					params.UsersHandler.MountRoutes(r, manageUsers)
				})
			}
			if params.RolesHandler != nil {
				r.Route("/roles", func(r chi.Router) {
					r.Use(manageUsers)
					params.RolesHandler.MountRoutes(r)
				})
			}
			if params.AgenciesHandler != nil {
				r.Route("/agencies", func(r chi.Router) {
					params.AgenciesHandler.MountRoutes(r, authMW.RequirePermission("agencies:edit"))
				})
			}
			if params.ContractsHandler != nil {
				r.Route("/contracts", func(r chi.Router) {
					params.ContractsHandler.MountRoutes(r,
						authMW.RequirePermission("contracts:edit"),
						authMW.RequirePermission("contracts:approve"))
				})
			}
			if params.ShipmentsHandler != nil {
				r.Route("/shipments", func(r chi.Router) {
					params.ShipmentsHandler.MountRoutes(r, authMW.RequirePermission("shipments:edit"))
				})
			}
			if params.FinanceHandler != nil {
				r.Route("/transactions", func(r chi.Router) {
					params.FinanceHandler.MountRoutes(r,
						authMW.RequirePermission("finance:edit"),
						authMW.RequirePermission("finance:approve"))
				})
			}
			if params.DocumentsHandler != nil {
				r.Route("/documents", func(r chi.Router) {
					params.DocumentsHandler.MountRoutes(r, authMW.RequirePermission("documents:edit"))
				})
			}
			if params.NotificationsHandler != nil {
				r.Route("/notifications", func(r chi.Router) {
					params.NotificationsHandler.MountRoutes(r)
				})
			}
			if params.WorkflowHandler != nil {
				r.Route("/workflow", func(r chi.Router) {
					params.WorkflowHandler.MountRoutes(r)
				})
			}
			if params.JobsClient != nil {
				r.With(authMW.RequireRole(roles.AdminRoleName)).
					Post("/admin/jobs/payment-reminders", handleEnqueueReminderScan(params.Logger, params.JobsClient))
			}
		})
	})

	return r
}

// handleEnqueueReminderScan lets an admin trigger the payment reminder
// scan outside the cron schedule.
func handleEnqueueReminderScan(logger *slog.Logger, client *jobs.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := client.EnqueuePaymentReminderScan(r.Context(), jobs.PaymentReminderPayload{})
		if err != nil {
			logger.Error("enqueue payment reminder scan", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not enqueue task")
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]any{
			"task_id": info.ID,
			"queue":   info.Queue,
		})
	}
}
