package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// accessUnauthorized is the flash shown for every authorization failure
// on the web routes. Authorization failures redirect home with this
// message; they are never 401/403 responses.
const accessUnauthorized = "Access unauthorized."

func userIDFromContext(ctx context.Context) (int, error) {
	value := ctx.Value(contextSubjectKey)
	switch subject := value.(type) {
	case int:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return subject, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(subject))
		if err != nil || parsed < 1 {
			return 0, errors.New("invalid subject")
		}
		return parsed, nil
	default:
		return 0, errors.New("missing subject")
	}
}

func parseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// ErrorResponse is a simple error payload for the JSON API.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
