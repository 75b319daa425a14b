package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/auth"
	"github.com/dmitrijs2005/gophsecrets/internal/server/models"
	"github.com/google/uuid"
)

// LoginPath is where the access gate sends anonymous visitors.
const LoginPath = "/login"

type ctxKey string

const userIDKey ctxKey = "userID"

// UserIDFromContext returns the user id stored by RequireAuthenticated.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Manager maps a browser's session cookie to a user id. The cookie carries
// a signed token naming a server-side session; a request is authenticated
// only while that session is still in the Store.
type Manager struct {
	store        Store
	secretKey    []byte
	validity     time.Duration
	secureCookie bool
	logger       logging.Logger
	now          func() time.Time
}

func NewManager(store Store, secretKey string, validity time.Duration, secureCookie bool, l logging.Logger) *Manager {
	return &Manager{
		store:        store,
		secretKey:    []byte(secretKey),
		validity:     validity,
		secureCookie: secureCookie,
		logger:       l.With("module", "sessions"),
		now:          time.Now,
	}
}

// Start binds a fresh session to userID, replacing whatever identity the
// request carried before.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) error {
	if claims, err := m.claims(r); err == nil {
		if err := m.store.Delete(ctx, claims.ID); err != nil {
			return fmt.Errorf("error revoking previous session: %w", err)
		}
	}

	now := m.now()
	s := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.validity),
	}

	token, err := auth.GenerateSessionToken(s.ID, s.UserID, m.secretKey, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("error signing session token: %w", err)
	}

	if err := m.store.Create(ctx, s); err != nil {
		return fmt.Errorf("error storing session: %w", err)
	}

	http.SetCookie(w, m.cookie(token, s.ExpiresAt, int(m.validity.Seconds())))
	m.logger.Debug(ctx, "session started", "user_id", userID)

	return nil
}

// Current reports the user bound to the request's session, if any.
func (m *Manager) Current(r *http.Request) (int64, bool) {
	claims, err := m.claims(r)
	if err != nil {
		return 0, false
	}

	s, err := m.store.Get(r.Context(), claims.ID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			m.logger.Error(r.Context(), "session lookup failed", "error", err)
		}
		return 0, false
	}

	if s.UserID != claims.UserID {
		return 0, false
	}

	return s.UserID, true
}

// End drops the request's session and clears the cookie. Calling it on an
// anonymous request is harmless.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if claims, err := m.claims(r); err == nil {
		if err := m.store.Delete(ctx, claims.ID); err != nil {
			m.logger.Error(ctx, "session delete failed", "error", err)
		}
	}

	http.SetCookie(w, m.cookie("", time.Unix(0, 0), -1))
}

// RequireAuthenticated lets authenticated requests through with the user id
// in their context and redirects everything else to LoginPath.
func (m *Manager) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.Current(r)
		if !ok {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) claims(r *http.Request) (*auth.SessionClaims, error) {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, common.ErrInvalidToken
	}
	return auth.ParseSessionToken(c.Value, m.secretKey)
}

func (m *Manager) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
