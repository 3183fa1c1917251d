package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/PressureTank/watchlist/backend/user"
)

type ctxKey string

const (
	userCtxKey    = ctxKey("user")
	sessionCookie = "watchlist_session"
	flashCookie   = "watchlist_flash"
	loginPath     = "/login"
)

// ErrInvalidCredentials is returned by SignIn when the username or password
// does not match the stored credential record.
var ErrInvalidCredentials = errors.New("invalid username or password")

// SessionStore persists session tokens between requests.
type SessionStore interface {
	CreateSession(token string, userID int) error
	SessionUserID(token string) (int, bool, error)
	DeleteSession(token string) error
}

// Auth verifies credentials against the single stored user and tracks the
// logged-in principal through a store-backed session referenced by a signed
// cookie.
type Auth struct {
	users        user.Database
	sessions     SessionStore
	secureCookie *securecookie.SecureCookie
	maxAge       int
	logger       *zap.Logger
}

func New(users user.Database, sessions SessionStore, hashKey, blockKey []byte, maxAge time.Duration, logger *zap.Logger) *Auth {
	return &Auth{
		users:        users,
		sessions:     sessions,
		secureCookie: securecookie.New(hashKey, blockKey),
		maxAge:       int(maxAge.Seconds()),
		logger:       logger,
	}
}

// SignIn checks the submitted credentials against the first (and only)
// stored user. On success it creates a session row and sets the session
// cookie on w.
func (a *Auth) SignIn(w http.ResponseWriter, username, password string) (*user.User, error) {
	u, err := a.users.FirstUser()
	if err != nil {
		return nil, err
	}
	if u == nil || username != u.Username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := a.sessions.CreateSession(token, u.ID); err != nil {
		return nil, err
	}

	encoded, err := a.secureCookie.Encode(sessionCookie, token)
	if err != nil {
		a.logger.Error("Error encoding session cookie", zap.Error(err))
		return nil, err
	}
	http.SetCookie(w, newCookie(sessionCookie, encoded, a.maxAge))
	return u, nil
}

// CurrentUser resolves the session cookie on r to a stored user. It returns
// nil for anonymous requests: missing cookie, bad signature, revoked
// session, or a user row that no longer exists.
func (a *Auth) CurrentUser(r *http.Request) *user.User {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil
	}

	var token string
	if err := a.secureCookie.Decode(sessionCookie, cookie.Value, &token); err != nil {
		a.logger.Warn("Failed to decode session cookie", zap.Error(err))
		return nil
	}

	userID, ok, err := a.sessions.SessionUserID(token)
	if err != nil || !ok {
		return nil
	}

	u, err := a.users.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return u
}

// SignOut deletes the session row referenced by r's cookie and expires the
// cookie.
func (a *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		var token string
		if err := a.secureCookie.Decode(sessionCookie, cookie.Value, &token); err == nil {
			if err := a.sessions.DeleteSession(token); err != nil {
				a.logger.Error("Error deleting session", zap.Error(err))
			}
		}
	}
	http.SetCookie(w, newCookie(sessionCookie, "", -1))
}

// RequireLogin wraps a handler, redirecting anonymous requests to the login
// page. The authenticated user is stored in the request context for the
// wrapped handler.
func (a *Auth) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := a.CurrentUser(r)
		if u == nil {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user stored by RequireLogin, or nil.
func UserFromContext(ctx context.Context) *user.User {
	u, ok := ctx.Value(userCtxKey).(*user.User)
	if !ok {
		return nil
	}
	return u
}

// Flash queues a one-time message for the next rendered page.
func (a *Auth) Flash(w http.ResponseWriter, msg string) {
	encoded, err := a.secureCookie.Encode(flashCookie, []string{msg})
	if err != nil {
		a.logger.Error("Error encoding flash cookie", zap.Error(err))
		return
	}
	http.SetCookie(w, newCookie(flashCookie, encoded, a.maxAge))
}

// PopFlashes returns queued flash messages and clears them, so each message
// is surfaced on exactly one page.
func (a *Auth) PopFlashes(w http.ResponseWriter, r *http.Request) []string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	var msgs []string
	if err := a.secureCookie.Decode(flashCookie, cookie.Value, &msgs); err != nil {
		a.logger.Warn("Failed to decode flash cookie", zap.Error(err))
		msgs = nil
	}
	http.SetCookie(w, newCookie(flashCookie, "", -1))
	return msgs
}

func newCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}
