package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-commerce/storefront/internal/platform/httpx"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireCapability ensures the current customer holds the capability.
func (m Middleware) RequireCapability(systemName string) func(http.Handler) http.Handler {
	return m.RequireAny(systemName)
}

// RequireAny ensures the current customer holds at least one of the
// capabilities. An empty list denies every request, as does RequireAll.
func (m Middleware) RequireAny(capabilities ...string) func(http.Handler) http.Handler {
	normalized := normalizeCapabilities(capabilities)
	return m.guard("rbac require any", func(ctx context.Context, principal shared.Principal) (bool, error) {
		for _, c := range normalized {
			granted, err := m.Service.Authorize(ctx, c, principal)
			if err != nil || granted {
				return granted, err
			}
		}
		return false, nil
	})
}

// RequireAll ensures the current customer holds every capability.
func (m Middleware) RequireAll(capabilities ...string) func(http.Handler) http.Handler {
	normalized := normalizeCapabilities(capabilities)
	return m.guard("rbac require all", func(ctx context.Context, principal shared.Principal) (bool, error) {
		if len(normalized) == 0 {
			return false, nil
		}
		for _, c := range normalized {
			granted, err := m.Service.Authorize(ctx, c, principal)
			if err != nil || !granted {
				return false, err
			}
		}
		return true, nil
	})
}

func (m Middleware) guard(op string, check func(context.Context, shared.Principal) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromSession(shared.SessionFromContext(r.Context()))
			granted, err := check(r.Context(), principal)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error(op, slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !granted {
				accessDenied(w, r)
				return
			}
			ctx := r.Context()
			if !principal.IsGuest() {
				ctx = shared.ContextWithActor(ctx, principal)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessDenied(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusForbidden, map[string]string{"error": "access denied"})
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func normalizeCapabilities(capabilities []string) []string {
	seen := make(map[string]struct{}, len(capabilities))
	normalized := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, c)
	}
	return normalized
}
