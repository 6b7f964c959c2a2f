package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warbler-social/server/internal/services"
	"github.com/warbler-social/server/internal/session"
	"github.com/warbler-social/server/internal/storage"
	"github.com/warbler-social/server/internal/store"
	"github.com/warbler-social/server/types"
)

// Web serves the browser-facing routes: session-cookie auth, form posts,
// redirects and flash messages.
type Web struct {
	users    *services.UserService
	follows  *services.FollowService
	messages *services.MessageService
	sessions *session.Manager
	avatars  *storage.Avatars
	logger   *logrus.Logger
}

// NewWeb constructs the web handler set.
func NewWeb(
	users *services.UserService,
	follows *services.FollowService,
	messages *services.MessageService,
	sessions *session.Manager,
	avatars *storage.Avatars,
	logger *logrus.Logger,
) *Web {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Web{
		users:    users,
		follows:  follows,
		messages: messages,
		sessions: sessions,
		avatars:  avatars,
		logger:   logger,
	}
}

// WebRouter registers the browser-facing routes.
func WebRouter(r chi.Router, h *Web) {
	r.Get("/", h.Home)

	r.Get("/signup", h.SignupForm)
	r.Post("/signup", h.Signup)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/profile", h.ProfileForm)
		r.Post("/profile", h.UpdateProfile)
		r.Post("/avatar", h.UploadAvatar)
		r.Post("/delete", h.DeleteAccount)
		r.Post("/follow/{userID}", h.Follow)
		r.Post("/stop-following/{userID}", h.Unfollow)
		r.Get("/{userID}", h.ShowUser)
		r.Get("/{userID}/following", h.ShowFollowing)
		r.Get("/{userID}/followers", h.ShowFollowers)
		r.Get("/{userID}/likes", h.ShowLikes)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Post("/new", h.CreateMessage)
		r.Get("/{messageID}", h.ShowMessage)
		r.Post("/{messageID}/delete", h.DeleteMessage)
		r.Post("/{messageID}/like", h.ToggleLike)
	})

	r.Get("/media/avatars/{userID}", h.ServeAvatar)
}

// viewer resolves the session's user id to a live account. A session id
// that no longer resolves (deleted account) is treated as Anonymous.
func (h *Web) viewer(r *http.Request) (types.User, bool) {
	id, ok := h.sessions.UserID(r)
	if !ok {
		return types.User{}, false
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.WithError(err).Warn("failed to load session user")
		}
		return types.User{}, false
	}
	return user, true
}

// unauthorized is the single authorization-failure response for web
// routes: flash plus redirect home, and no side effect at the caller.
func (h *Web) unauthorized(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.AddFlash(w, r, accessUnauthorized); err != nil {
		h.logger.WithError(err).Warn("failed to save flash")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// requireViewer returns the authenticated user or responds with the
// authorization failure.
func (h *Web) requireViewer(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	user, ok := h.viewer(r)
	if !ok {
		h.unauthorized(w, r)
		return types.User{}, false
	}
	return user, true
}

func (h *Web) flashAndRedirect(w http.ResponseWriter, r *http.Request, message, target string) {
	if message != "" {
		if err := h.sessions.AddFlash(w, r, message); err != nil {
			h.logger.WithError(err).Warn("failed to save flash")
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}
