package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/warbler-social/server/internal/services"
	"github.com/warbler-social/server/internal/store"
	"github.com/warbler-social/server/types"
)

type messagePage struct {
	Message   types.Message
	LikeCount int
	HasLiked  bool
}

// CreateMessage posts a new message for the viewer.
func (h *Web) CreateMessage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	message, err := h.messages.Create(r.Context(), viewer.ID, r.PostFormValue("text"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyText):
			h.flashAndRedirect(w, r, "Message can't be blank.", "/")
		case errors.Is(err, services.ErrTextTooLong):
			h.flashAndRedirect(w, r, "Message is too long.", "/")
		default:
			h.logger.WithError(err).Error("failed to create message")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, "/messages/"+strconv.Itoa(message.ID), http.StatusFound)
}

// ShowMessage renders a single message with its like state.
func (h *Web) ShowMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "messageID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}

	message, err := h.messages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to load message")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	count, err := h.messages.LikeCount(r.Context(), message.ID)
	if err != nil {
		h.logger.WithError(err).Error("failed to count likes")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	hasLiked := false
	if viewer, ok := h.viewer(r); ok {
		hasLiked, err = h.messages.HasLiked(r.Context(), viewer.ID, message.ID)
		if err != nil {
			h.logger.WithError(err).Error("failed to check like state")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	h.render(w, r, http.StatusOK, "message", "Message", messagePage{
		Message:   message,
		LikeCount: count,
		HasLiked:  hasLiked,
	})
}

// DeleteMessage removes a message. Only the author may delete it;
// anyone else gets the authorization failure.
func (h *Web) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	id, err := parseIDParam(r, "messageID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}
	message, err := h.messages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to load message")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if message.UserID != viewer.ID {
		h.unauthorized(w, r)
		return
	}

	if err := h.messages.Delete(r.Context(), viewer.ID, message.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.WithError(err).Error("failed to delete message")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/users/"+strconv.Itoa(viewer.ID), http.StatusFound)
}

// ToggleLike flips the viewer's like on a message.
func (h *Web) ToggleLike(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.requireViewer(w, r)
	if !ok {
		return
	}

	id, err := parseIDParam(r, "messageID")
	if err != nil {
		h.renderNotFound(w, r)
		return
	}
	if _, err := h.messages.ToggleLike(r.Context(), viewer.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, r)
			return
		}
		h.logger.WithError(err).Error("failed to toggle like")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/messages/"+strconv.Itoa(id), http.StatusFound)
}
