// Package session stores the authenticated user's id and flash messages
// in a signed cookie. The session holds at most one piece of identity: the
// user id under currentUserKey. Absence of the key means Anonymous.
package session

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName    = "warbler_session"
	currentUserKey = "curr_user"
	sessionMaxAge  = 3600 * 16 // 16 hours
)

// Manager wraps a cookie store with the handful of operations handlers
// need.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager builds a Manager signing cookies with the given secret.
func NewManager(secret string) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// UserID returns the user id stored in the request's session, if any.
func (m *Manager) UserID(r *http.Request) (int, bool) {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values[currentUserKey].(int)
	if !ok || id < 1 {
		return 0, false
	}
	return id, true
}

// SignIn stores the user id in the session.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, userID int) error {
	sess, _ := m.store.Get(r, sessionName)
	sess.Values[currentUserKey] = userID
	return sess.Save(r, w)
}

// SignOut removes the user id from the session.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, sessionName)
	delete(sess.Values, currentUserKey)
	return sess.Save(r, w)
}

// AddFlash queues a one-time message shown on the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, message string) error {
	sess, _ := m.store.Get(r, sessionName)
	sess.AddFlash(message)
	return sess.Save(r, w)
}

// Flashes drains the queued flash messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	messages := make([]string, 0, len(raw))
	for _, value := range raw {
		if s, ok := value.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages
}
