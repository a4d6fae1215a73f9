package customers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-commerce/storefront/internal/platform/httpx"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// Guard wraps handlers with capability checks.
type Guard interface {
	RequireCapability(systemName string) func(http.Handler) http.Handler
	RequireAny(systemNames ...string) func(http.Handler) http.Handler
}

// Handler manages customer membership endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(shared.PermCustomersView, shared.PermCustomersManage))
		r.Get("/", h.listCustomers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireCapability(shared.PermCustomersManage))
		r.Put("/{customerID}/roles/{roleID}", h.assignRole)
		r.Delete("/{customerID}/roles/{roleID}", h.unassignRole)
	})
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	result, err := h.service.ListCustomers(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.service.AssignRole)
}

func (h *Handler) unassignRole(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.service.UnassignRole)
}

func (h *Handler) membership(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, customerID, roleID int64) error) {
	customerID, err1 := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	roleID, err2 := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err1 != nil || err2 != nil || customerID <= 0 || roleID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer or role id")
		return
	}
	if err := apply(r.Context(), customerID, roleID); err != nil {
		if IsNotFound(err) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("update customer roles", slog.Any("error", err), slog.Int64("customer_id", customerID))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
