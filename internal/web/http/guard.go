package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
	"github.com/aussiebroadwan/budgetwise/internal/web/session"
	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
	"github.com/aussiebroadwan/budgetwise/pkg/httpx"
)

// StateSource is what the guard decides on.
type StateSource interface {
	State() session.State
}

type identityKey struct{}

func withIdentity(ctx context.Context, id identity.Identity) context.Context {
	ctx = httpx.WithUserID(ctx, id.ID)
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity the guard let through.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identity.Identity)
	return id, ok
}

// Guard protects pages that need a signed-in user. While the session is
// still loading it answers with a placeholder that refreshes itself; once
// loaded it either lets the request through with the identity in its
// context or redirects to the login page.
func Guard(src StateSource, placeholder http.Handler) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := src.State()
			switch {
			case st.Loading:
				w.Header().Set("Retry-After", "1")
				placeholder.ServeHTTP(w, r)
			case st.Identity == nil:
				http.Redirect(w, r, budgetsdk.LoginPath, http.StatusFound)
			default:
				next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), *st.Identity)))
			}
		})
	}
}
