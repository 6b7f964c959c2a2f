package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/warbler-social/server/internal/services"
	"github.com/warbler-social/server/internal/store"
	"github.com/warbler-social/server/types"
)

const defaultTokenTTL = 24 * time.Hour

// API provides the token-authenticated JSON endpoints used by non-browser
// clients. Browser traffic goes through Web instead.
type API struct {
	users    *services.UserService
	messages *services.MessageService
	secret   []byte
	tokenTTL time.Duration
}

// NewAPI constructs an API handler set.
func NewAPI(users *services.UserService, messages *services.MessageService, jwtSecret string) *API {
	return &API{
		users:    users,
		messages: messages,
		secret:   []byte(jwtSecret),
		tokenTTL: defaultTokenTTL,
	}
}

// APIRouter registers the JSON API routes.
func APIRouter(r chi.Router, h *API) {
	r.Post("/login", h.Login)
	r.With(h.RequireAuth).Get("/me", h.Me)
	r.With(h.RequireAuth).Get("/feed", h.Feed)
	r.With(h.RequireAuth).Post("/messages", h.CreateMessage)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *API) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		subject, err := parseTokenSubject(tokenString, h.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type CreateMessageRequest struct {
	Text string `json:"text"`
}

// Login verifies credentials and returns a JWT.
func (h *API) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, ok, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me returns the current authenticated user.
func (h *API) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// subjectUser resolves the token subject to a live account. A token can
// outlive its account; a vanished subject is treated the same as a
// missing token, never as a server error.
func (h *API) subjectUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return 0, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return 0, false
	}
	return userID, true
}

// Feed returns the newest messages from the caller and everyone they
// follow.
func (h *API) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subjectUser(w, r)
	if !ok {
		return
	}

	messages, err := h.messages.Feed(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// CreateMessage posts a message for the caller.
func (h *API) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subjectUser(w, r)
	if !ok {
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	message, err := h.messages.Create(r.Context(), userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyText), errors.Is(err, services.ErrTextTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create message")
		}
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
