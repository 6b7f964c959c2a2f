package handlers

import (
	"errors"
	"net/http"

	"github.com/warbler-social/server/internal/services"
	"github.com/warbler-social/server/internal/store"
)

// SignupForm renders the registration form.
func (h *Web) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup", "Sign up", nil)
}

// Signup registers a new account and signs it in. Validation failures
// re-render the form with a flash instead of erroring.
func (h *Web) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	user, err := h.users.Signup(
		r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
		r.PostFormValue("image_url"),
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyPassword):
			h.flashSignupError(w, r, "Password is required.")
		case errors.Is(err, store.ErrConflict):
			h.flashSignupError(w, r, "Username or e-mail already taken.")
		default:
			h.logger.WithError(err).Error("signup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.sessions.SignIn(w, r, user.ID); err != nil {
		h.logger.WithError(err).Error("failed to save session")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Web) flashSignupError(w http.ResponseWriter, r *http.Request, message string) {
	if err := h.sessions.AddFlash(w, r, message); err != nil {
		h.logger.WithError(err).Warn("failed to save flash")
	}
	h.render(w, r, http.StatusOK, "signup", "Sign up", nil)
}

// LoginForm renders the login form.
func (h *Web) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", "Log in", nil)
}

// Login authenticates a username/password pair. Bad credentials re-render
// the form with a flash; the response stays 200.
func (h *Web) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	user, ok, err := h.users.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.logger.WithError(err).Error("login failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		if err := h.sessions.AddFlash(w, r, "Invalid credentials."); err != nil {
			h.logger.WithError(err).Warn("failed to save flash")
		}
		h.render(w, r, http.StatusOK, "login", "Log in", nil)
		return
	}

	if err := h.sessions.SignIn(w, r, user.ID); err != nil {
		h.logger.WithError(err).Error("failed to save session")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.flashAndRedirect(w, r, "Hello, "+user.Username+"!", "/")
}

// Logout clears the session and redirects to the login page.
func (h *Web) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		h.logger.WithError(err).Warn("failed to clear session")
	}
	h.flashAndRedirect(w, r, "You have been logged out.", "/login")
}
