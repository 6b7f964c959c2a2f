package handlers

import (
	"net/http"

	"github.com/warbler-social/server/types"
)

type homePage struct {
	Messages []types.Message
}

// Home shows the viewer's feed, or the most recent messages site-wide for
// anonymous visitors.
func (h *Web) Home(w http.ResponseWriter, r *http.Request) {
	viewer, signedIn := h.viewer(r)

	var (
		messages []types.Message
		err      error
	)
	if signedIn {
		messages, err = h.messages.Feed(r.Context(), viewer.ID)
	} else {
		messages, err = h.messages.Recent(r.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to load home timeline")
		messages = nil
	}

	h.render(w, r, http.StatusOK, "home", "Home", homePage{Messages: messages})
}
