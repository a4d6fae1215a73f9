package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-commerce/storefront/internal/platform/httpx"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// PermissionsHandler exposes the capability catalog and role grants as JSON.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	rbac      Middleware
	validator *validator.Validate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers permission routes. Every route requires the ACL
// management capability.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(shared.PermManageACL))
		r.Get("/", h.listCapabilities)
		r.Get("/categories", h.listCategories)
		r.Post("/roles/{roleID}/grants", h.bulkGrant)
		r.Get("/{capability}", h.getCapability)
		r.Patch("/{capability}", h.updateCapability)
		r.Put("/{capability}/roles", h.setRoles)
		r.Delete("/{capability}", h.deleteCapability)
	})
}

type capabilityView struct {
	Capability
	RoleIDs []int64 `json:"role_ids"`
}

type updateCapabilityRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	SystemName string `json:"system_name" validate:"omitempty,max=255"`
	Category   string `json:"category" validate:"max=255"`
}

type setRolesRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"dive,gt=0"`
}

type bulkGrantRequest struct {
	Capabilities []string `json:"capabilities" validate:"required,min=1,dive,required,max=255"`
}

func (h *PermissionsHandler) listCapabilities(w http.ResponseWriter, r *http.Request) {
	var (
		capabilities []Capability
		err          error
	)
	if category, ok := r.URL.Query()["category"]; ok && len(category) > 0 {
		capabilities, err = h.service.CapabilitiesByCategory(r.Context(), category[0])
	} else {
		capabilities, err = h.service.ListCapabilities(r.Context())
	}
	if err != nil {
		h.fail(w, "list capabilities", err)
		return
	}
	if capabilities == nil {
		capabilities = []Capability{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"capabilities": capabilities})
}

func (h *PermissionsHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *PermissionsHandler) getCapability(w http.ResponseWriter, r *http.Request) {
	capability, ok := h.capability(w, r)
	if !ok {
		return
	}
	roleIDs, err := h.service.RolesForCapability(r.Context(), capability.ID)
	if err != nil {
		h.fail(w, "roles for capability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, capabilityView{Capability: capability, RoleIDs: roleIDs})
}

func (h *PermissionsHandler) updateCapability(w http.ResponseWriter, r *http.Request) {
	capability, ok := h.capability(w, r)
	if !ok {
		return
	}
	var req updateCapabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.service.UpdateCapability(r.Context(), Capability{ID: capability.ID, Name: req.Name, SystemName: req.SystemName, Category: req.Category})
	if err != nil {
		h.fail(w, "update capability", err)
		return
	}
	updated, err := h.service.GetCapability(r.Context(), capability.ID)
	if err != nil {
		h.fail(w, "get capability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *PermissionsHandler) setRoles(w http.ResponseWriter, r *http.Request) {
	capability, ok := h.capability(w, r)
	if !ok {
		return
	}
	var req setRolesRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetCapabilityRoles(r.Context(), capability.ID, req.RoleIDs); err != nil {
		h.fail(w, "set capability roles", err)
		return
	}
	roleIDs, err := h.service.RolesForCapability(r.Context(), capability.ID)
	if err != nil {
		h.fail(w, "roles for capability", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_ids": roleIDs})
}

func (h *PermissionsHandler) deleteCapability(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCapability(r.Context(), chi.URLParam(r, "capability")); err != nil {
		h.fail(w, "delete capability", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PermissionsHandler) bulkGrant(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil || roleID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	var req bulkGrantRequest
	if !h.decode(w, r, &req) {
		return
	}
	skipped, err := h.service.BulkGrant(r.Context(), roleID, req.Capabilities)
	if err != nil {
		h.fail(w, "bulk grant", err)
		return
	}
	if skipped == nil {
		skipped = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"skipped": skipped})
}

func (h *PermissionsHandler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *PermissionsHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrImmutableSystemName):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

// capability resolves the {capability} path segment, which is the system name.
func (h *PermissionsHandler) capability(w http.ResponseWriter, r *http.Request) (Capability, bool) {
	capability, err := h.service.CapabilityBySystemName(r.Context(), chi.URLParam(r, "capability"))
	if err != nil {
		h.fail(w, "get capability", err)
		return Capability{}, false
	}
	return capability, true
}
