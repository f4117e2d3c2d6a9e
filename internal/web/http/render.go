package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/aussiebroadwan/budgetwise/internal/web/assistant"
	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
	"github.com/aussiebroadwan/budgetwise/pkg/httpx"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var pageNames = []string{
	"login", "signup", "loading",
	"dashboard", "expenses", "reports", "predictions", "insights", "settings",
}

// Views holds one template set per page, each a page file on top of the
// shared layout.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the templates under templates/ in fsys.
func NewViews(fsys fs.FS) (*Views, error) {
	funcs := templateFuncs(message.NewPrinter(language.MustParse("en-IN")))

	v := &Views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (v *Views) Render(w io.Writer, name string, data any) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func templateFuncs(p *message.Printer) template.FuncMap {
	return template.FuncMap{
		"money": func(amount float64) string {
			if amount < 0 {
				return "-₹" + p.Sprint(number.Decimal(-amount, number.MaxFractionDigits(2)))
			}
			return "₹" + p.Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"width": func(v float64) template.CSS {
			return template.CSS(fmt.Sprintf("%.1f%%", min(max(v, 0), 100)))
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("02 Jan 2006")
		},
	}
}

// page is the data every template sees.
type page struct {
	Title   string
	Nav     string
	Path    string
	User    *identity.Identity
	Flash   string
	Error   string
	Refresh bool
	Data    any

	Chat            []assistant.Message
	ChatOpen        bool
	ShowSuggestions bool
	Questions       []assistant.FAQ
}

// render writes a page, unless an API call made while preparing it asked
// for a navigation, in which case that wins.
func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, name string, p page) {
	if target, ok := pendingRedirect(req.Context()); ok {
		httpx.SeeOther(w, req, target)
		return
	}

	p.Path = req.URL.Path
	if id, ok := IdentityFromContext(req.Context()); ok {
		p.User = &id
		p.Chat = r.chat.Messages()
		p.ShowSuggestions = assistant.ShowSuggestions(p.Chat)
		p.Questions = assistant.Questions
		p.ChatOpen = req.URL.Query().Get("chat") == "open"
	}

	var buf bytes.Buffer
	if err := r.views.Render(&buf, name, p); err != nil {
		slogx.FromContext(req.Context()).Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// seeOther finishes a form post, again deferring to a pending navigation.
func (r *Router) seeOther(w http.ResponseWriter, req *http.Request, target string) {
	if pending, ok := pendingRedirect(req.Context()); ok {
		target = pending
	}
	httpx.SeeOther(w, req, target)
}
