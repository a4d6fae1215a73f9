package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-commerce/storefront/internal/platform/httpx"
)

// Guard wraps handlers with an authorization check.
type Guard interface {
	RequireCapability(systemName string) func(http.Handler) http.Handler
}

// Handler manages role listing endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	guard      Guard
	capability string
}

// NewHandler builds Handler instance; every route requires capability.
func NewHandler(logger *slog.Logger, service *Service, guard Guard, capability string) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, capability: capability}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard.RequireCapability(h.capability))
		}
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.getRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	showHidden := r.URL.Query().Get("show_hidden") == "true"
	roles, err := h.service.ListRoles(r.Context(), showHidden)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}
