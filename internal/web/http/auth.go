package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/budgetwise/internal/web/identity"
	"github.com/aussiebroadwan/budgetwise/internal/web/session"
	"github.com/aussiebroadwan/budgetwise/pkg/slogx"
)

type loginForm struct {
	Email string
}

type signupForm struct {
	Username string
	Email    string
}

// signedIn reports whether the session has a user and a token to call the
// API with, in which case the auth forms send them home. After a 401 the
// identity is still there but the token is gone, and signing in again is
// what gets a fresh one.
func (r *Router) signedIn() bool {
	return r.session.State().Authenticated() && r.session.HasToken()
}

func (r *Router) handleLoginForm(w http.ResponseWriter, req *http.Request) {
	if r.signedIn() {
		http.Redirect(w, req, "/", http.StatusFound)
		return
	}
	r.render(w, req, http.StatusOK, "login", page{Title: "Sign in", Data: loginForm{}})
}

func (r *Router) handleSignupForm(w http.ResponseWriter, req *http.Request) {
	if r.signedIn() {
		http.Redirect(w, req, "/", http.StatusFound)
		return
	}
	r.render(w, req, http.StatusOK, "signup", page{Title: "Sign up", Data: signupForm{}})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	form := loginForm{Email: strings.TrimSpace(req.PostFormValue("email"))}
	password := req.PostFormValue("password")

	if form.Email == "" || password == "" {
		r.render(w, req, http.StatusUnprocessableEntity, "login", page{
			Title: "Sign in",
			Error: "Please enter your email and password.",
			Data:  form,
		})
		return
	}

	if err := r.session.Login(req.Context(), form.Email, password); err != nil {
		slogx.FromContext(req.Context()).Warn("sign in failed", "error", err)
		r.render(w, req, authFailureStatus(err), "login", page{
			Title: "Sign in",
			Error: identity.UserMessage(err),
			Data:  form,
		})
		return
	}

	r.seeOther(w, req, "/")
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	form := signupForm{
		Username: strings.TrimSpace(req.PostFormValue("username")),
		Email:    strings.TrimSpace(req.PostFormValue("email")),
	}
	password := req.PostFormValue("password")

	if form.Username == "" || form.Email == "" || password == "" {
		r.render(w, req, http.StatusUnprocessableEntity, "signup", page{
			Title: "Sign up",
			Error: "Please fill in all fields.",
			Data:  form,
		})
		return
	}

	if err := r.session.Signup(req.Context(), form.Username, form.Email, password); err != nil {
		slogx.FromContext(req.Context()).Warn("sign up failed", "error", err)
		r.render(w, req, authFailureStatus(err), "signup", page{
			Title: "Sign up",
			Error: identity.UserMessage(err),
			Data:  form,
		})
		return
	}

	r.seeOther(w, req, "/")
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if err := r.session.Logout(req.Context()); err != nil {
		slogx.FromContext(req.Context()).Warn("sign out failed", "error", err)
	}
	r.chat.Reset()
	r.seeOther(w, req, "/login")
}

// authFailureStatus is 422 for rejected credentials. Anything else, an
// unreachable provider or a session that never settled, is 503.
func authFailureStatus(err error) int {
	if session.IsCredentialError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusServiceUnavailable
}
