package audithttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-commerce/storefront/internal/platform/httpx"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// Exports scan the whole filtered range, so they get a tighter budget than
// the paged timeline.
const (
	exportLimit  = 10
	exportWindow = time.Minute
)

// MountRoutes registers the audit trail and its CSV export behind the guard.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(r chi.Router) {
		if h.guard != nil {
			r.Use(h.guard.RequireCapability(h.capability))
		}
		r.Get("/", h.handleTimeline)
		r.With(exportLimiter()).Get("/export.csv", h.handleExport)
	})
}

func exportLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(exportLimit, exportWindow,
		httprate.WithKeyFuncs(exportKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit reached")
		}),
	)
}

// exportKey buckets by the signed-in customer, falling back to client IP.
func exportKey(r *http.Request) (string, error) {
	if customer := shared.PrincipalFromSession(shared.SessionFromContext(r.Context())); !customer.IsGuest() {
		return "customer:" + customer.String(), nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}
