package rbac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-commerce/storefront/internal/shared"
)

const aclAdmin = int64(1)

func newPermissionsRouter(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	f := newFixture(t, roleAdmins, roleRegistered, roleVendors)
	f.install(t, shared.PermManageACL, "Administrators")
	f.roleRepo.assign(aclAdmin, roleAdmins.ID)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewPermissionsHandler(logger, f.svc, Middleware{Service: f.svc, Logger: logger})
	r := chi.NewRouter()
	r.Route("/admin/acl", h.MountRoutes)
	return f, r
}

func serve(h http.Handler, method, target string, customerID int64, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := newRequest(method, target, customerID, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPermissionsHandlerRequiresManageACL(t *testing.T) {
	_, h := newPermissionsRouter(t)
	rr := serve(h, http.MethodGet, "/admin/acl/", 2, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPermissionsHandlerListAndCategories(t *testing.T) {
	f, h := newPermissionsRouter(t)
	f.install(t, "Catalog.ManageProducts", "Administrators")

	rr := serve(h, http.MethodGet, "/admin/acl/categories", aclAdmin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"categories":["Test"]}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/admin/acl/?category=Missing", aclAdmin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"capabilities":[]}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/admin/acl/", aclAdmin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Capabilities []Capability `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Capabilities, 2)
}

func TestPermissionsHandlerSetRoles(t *testing.T) {
	f, h := newPermissionsRouter(t)
	f.install(t, "Orders.View", "Registered")
	path := "/admin/acl/Orders.View"

	rr := serve(h, http.MethodPut, path+"/roles", aclAdmin, `{"role_ids":[3]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"role_ids":[3]}`, rr.Body.String())

	rr = serve(h, http.MethodGet, path, aclAdmin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var view capabilityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Orders.View", view.SystemName)
	assert.Equal(t, []int64{3}, view.RoleIDs)

	rr = serve(h, http.MethodPut, "/admin/acl/Orders.Missing/roles", aclAdmin, `{"role_ids":[3]}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(h, http.MethodPut, path+"/roles", aclAdmin, `{"role_ids":[0]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPermissionsHandlerUpdate(t *testing.T) {
	f, h := newPermissionsRouter(t)
	f.install(t, "Orders.View")
	path := "/admin/acl/Orders.View"

	rr := serve(h, http.MethodPatch, path, aclAdmin, `{"name":"View orders","category":"Sales"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"View orders"`)

	rr = serve(h, http.MethodPatch, path, aclAdmin, `{"name":"X","system_name":"Orders.Other"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(h, http.MethodPatch, path, aclAdmin, `{"category":"Sales"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, http.MethodPatch, "/admin/acl/Orders.Missing", aclAdmin, `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPermissionsHandlerAddressesCapabilityBySystemName(t *testing.T) {
	f, h := newPermissionsRouter(t)
	capability := f.install(t, "Orders.View", "Registered")

	rr := serve(h, http.MethodGet, "/admin/acl/Orders.View", aclAdmin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var view capabilityView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, capability.ID, view.ID)
	assert.Equal(t, []int64{roleRegistered.ID}, view.RoleIDs)

	rr = serve(h, http.MethodGet, "/admin/acl/"+strconv.FormatInt(capability.ID, 10), aclAdmin, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPermissionsHandlerBulkGrantAndDelete(t *testing.T) {
	f, h := newPermissionsRouter(t)
	f.install(t, "Orders.View")

	rr := serve(h, http.MethodPost, "/admin/acl/roles/3/grants", aclAdmin, `{"capabilities":["orders.view","Nope"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"skipped":["Nope"]}`, rr.Body.String())

	rr = serve(h, http.MethodPost, "/admin/acl/roles/x/grants", aclAdmin, `{"capabilities":["Orders.View"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, http.MethodDelete, "/admin/acl/Orders.View", aclAdmin, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	_, err := f.store.GetCapabilityBySystemName(context.Background(), "Orders.View")
	assert.ErrorIs(t, err, ErrNotFound)
}
