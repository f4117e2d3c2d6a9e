package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aussiebroadwan/budgetwise/pkg/budgetsdk"
)

type redirectKey struct{}

// redirect holds the first navigation requested while serving a request.
type redirect struct {
	mu     sync.Mutex
	target string
}

func (rd *redirect) set(target string) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	if rd.target == "" {
		rd.target = target
	}
}

func (rd *redirect) get() (string, bool) {
	rd.mu.Lock()
	defer rd.mu.Unlock()
	return rd.target, rd.target != ""
}

// Navigator is the budgetsdk.Navigator for the web server. A navigation is
// recorded against the request whose context the API call carried; the
// page renderer then answers with a redirect instead of the page.
type Navigator struct{}

var _ budgetsdk.Navigator = Navigator{}

func (Navigator) Navigate(ctx context.Context, path string) {
	if rd, ok := ctx.Value(redirectKey{}).(*redirect); ok {
		rd.set(path)
	}
}

// RecordRedirects gives every request a slot for Navigator to fill.
func RecordRedirects(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), redirectKey{}, &redirect{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// pendingRedirect reports a navigation requested during this request.
func pendingRedirect(ctx context.Context) (string, bool) {
	rd, ok := ctx.Value(redirectKey{}).(*redirect)
	if !ok {
		return "", false
	}
	return rd.get()
}
