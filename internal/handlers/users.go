package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/warbler-social/server/internal/store"
	"github.com/warbler-social/server/types"
)

const maxAvatarBytes = 5 << 20

type userListPage struct {
	Users []types.User
	Query string
}

type userPage struct {
	User        types.User
	Messages    []types.Message
	IsFollowing bool
}

// ListUsers shows all users, optionally filtered by the q parameter.
func (h *Web) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	users, err := h.users.List(r.Context(), query, 0)
	if err != nil {
		h.logger.WithError(err).Error("failed to list users")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "users", "Users", userListPage{Users: users, Query: query})
}

// ShowUser renders a profile page with the user's messages.
func (h *Web) ShowUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to load user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	messages, err := h.messages.ByUser(r.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to load user messages")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	isFollowing := false
	if viewer, ok := h.viewer(r); ok && viewer.ID != user.ID {
		isFollowing, err = h.follows.IsFollowing(r.Context(), viewer.ID, user.ID)
		if err != nil {
			h.logger.WithError(err).Error("failed to check follow state")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	h.render(w, r, http.StatusOK, "user", "@"+user.Username, userPage{
		User:        user,
		Messages:    messages,
		IsFollowing: isFollowing,
	})
}

// ShowFollowing lists who a user follows. Signed-in viewers only.
func (h *Web) ShowFollowing(w http.ResponseWriter, r *http.Request) {
	h.showUserConnections(w, r, "Following", h.follows.Following)
}

// ShowFollowers lists who follows a user. Signed-in viewers only.
func (h *Web) ShowFollowers(w http.ResponseWriter, r *http.Request) {
	h.showUserConnections(w, r, "Followers", h.follows.Followers)
}

func (h *Web) showUserConnections(
	w http.ResponseWriter,
	r *http.Request,
	title string,
	list func(ctx context.Context, userID int) ([]types.User, error),
) {
	if _, ok := h.requireViewer(w, r); !ok {
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}
	if _, err := h.users.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to load user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	users, err := list(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("failed to list connections")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "users", title, userListPage{Users: users})
}

// ShowLikes lists the messages a user has liked. Signed-in viewers only.
func (h *Web) ShowLikes(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireViewer(w, r); !ok {
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to load user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	messages, err := h.messages.LikedBy(r.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list liked messages")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "home", "Likes", homePage{Messages: messages})
}

// Follow creates a follow edge from the viewer to the target user.
func (h *Web) Follow(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}
	if err := h.follows.Follow(r.Context(), viewer.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to follow user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.Itoa(id), http.StatusFound)
}

// Unfollow removes the viewer's follow edge to the target user.
func (h *Web) Unfollow(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}
	if err := h.follows.Unfollow(r.Context(), viewer.ID, id); err != nil {
		h.logger.WithError(err).Error("failed to unfollow user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.Itoa(id), http.StatusFound)
}

// ProfileForm renders the profile editor for the viewer.
func (h *Web) ProfileForm(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "profile", "Edit profile", userPage{User: viewer})
}

// UpdateProfile saves edited profile fields. The viewer must confirm
// their password; a wrong password is an authorization failure.
func (h *Web) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	if _, ok, err := h.users.Authenticate(r.Context(), viewer.Username, r.PostFormValue("password")); err != nil {
		h.logger.WithError(err).Error("failed to verify password")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	} else if !ok {
		h.unauthorized(w, r)
		return
	}

	viewer.Username = r.PostFormValue("username")
	viewer.Email = r.PostFormValue("email")
	viewer.ImageURL = r.PostFormValue("image_url")
	viewer.HeaderImageURL = r.PostFormValue("header_image_url")
	viewer.Bio = r.PostFormValue("bio")
	viewer.Location = r.PostFormValue("location")
	if viewer.ImageURL == "" {
		viewer.ImageURL = types.DefaultImageURL
	}
	if viewer.HeaderImageURL == "" {
		viewer.HeaderImageURL = types.DefaultHeaderImageURL
	}

	updated, err := h.users.UpdateProfile(r.Context(), viewer)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			if err := h.sessions.AddFlash(w, r, "Username or e-mail already taken."); err != nil {
				h.logger.WithError(err).Warn("failed to save flash")
			}
			h.render(w, r, http.StatusOK, "profile", "Edit profile", userPage{User: viewer})
			return
		}
		h.logger.WithError(err).Error("failed to update profile")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.Itoa(updated.ID), http.StatusFound)
}

// DeleteAccount removes the viewer's account and signs them out.
func (h *Web) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	// The session outlives a failed delete; sign out only once the
	// account is actually gone.
	if err := h.users.Delete(r.Context(), viewer.ID); err != nil {
		h.logger.WithError(err).Error("failed to delete account")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.avatars.Delete(r.Context(), viewer.ID); err != nil {
		h.logger.WithError(err).Warn("failed to delete stored avatar")
	}
	if err := h.sessions.SignOut(w, r); err != nil {
		h.logger.WithError(err).Warn("failed to clear session")
	}
	http.Redirect(w, r, "/signup", http.StatusFound)
}

// UploadAvatar stores a profile image for the viewer and points their
// image URL at the serving route.
func (h *Web) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	if !h.avatars.Enabled() {
		h.flashAndRedirect(w, r, "Image uploads are not enabled.", "/users/profile")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.avatars.Put(r.Context(), viewer.ID, file, header.Size, contentType)
	if err != nil {
		h.logger.WithError(err).Error("failed to store avatar")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	viewer.ImageURL = url
	if _, err := h.users.UpdateProfile(r.Context(), viewer); err != nil {
		h.logger.WithError(err).Error("failed to save avatar url")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.Itoa(viewer.ID), http.StatusFound)
}

// ServeAvatar streams a stored profile image.
func (h *Web) ServeAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil || !h.avatars.Enabled() {
		http.NotFound(w, r)
		return
	}

	object, err := h.avatars.Open(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer object.Close()

	if _, err := io.Copy(w, object); err != nil {
		h.logger.WithError(err).Warn("failed to stream avatar")
	}
}
