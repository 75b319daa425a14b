package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	st := NewMemoryStore()
	return NewManager(st, testSecret, time.Hour, true, logging.Nop{}), st
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", common.SessionCookieName)
	return nil
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/secrets", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestManager_StartAndCurrent(t *testing.T) {
	m, st := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, requestWith(nil), 42))

	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 1, st.Len())

	id, ok := m.Current(requestWith(c))
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestManager_CurrentAnonymous(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "empty cookie", cookie: &http.Cookie{Name: common.SessionCookieName}},
		{name: "garbage", cookie: &http.Cookie{Name: common.SessionCookieName, Value: "garbage"}},
	}

	forged, err := auth.GenerateSessionToken("sid", 1, []byte("other-secret"), time.Now().Add(time.Hour))
	require.NoError(t, err)
	tests = append(tests, struct {
		name   string
		cookie *http.Cookie
	}{name: "wrong secret", cookie: &http.Cookie{Name: common.SessionCookieName, Value: forged}})

	unknown, err := auth.GenerateSessionToken("not-in-store", 1, []byte(testSecret), time.Now().Add(time.Hour))
	require.NoError(t, err)
	tests = append(tests, struct {
		name   string
		cookie *http.Cookie
	}{name: "validly signed but unknown session", cookie: &http.Cookie{Name: common.SessionCookieName, Value: unknown}})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Current(requestWith(tt.cookie))
			assert.False(t, ok)
		})
	}
}

func TestManager_CurrentRejectsUserMismatch(t *testing.T) {
	m, _ := newTestManager(t)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, requestWith(nil), 1))
	claims, err := auth.ParseSessionToken(sessionCookie(t, rec).Value, []byte(testSecret))
	require.NoError(t, err)

	// Same session id, different user: must not be honoured.
	tampered, err := auth.GenerateSessionToken(claims.ID, 2, []byte(testSecret), time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, ok := m.Current(requestWith(&http.Cookie{Name: common.SessionCookieName, Value: tampered}))
	assert.False(t, ok)
}

func TestManager_StartReplacesPreviousIdentity(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	rec1 := httptest.NewRecorder()
	require.NoError(t, m.Start(ctx, rec1, requestWith(nil), 1))
	first := sessionCookie(t, rec1)

	rec2 := httptest.NewRecorder()
	require.NoError(t, m.Start(ctx, rec2, requestWith(first), 2))
	second := sessionCookie(t, rec2)

	assert.Equal(t, 1, st.Len(), "old session must be revoked")

	_, ok := m.Current(requestWith(first))
	assert.False(t, ok)

	id, ok := m.Current(requestWith(second))
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestManager_End(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(ctx, rec, requestWith(nil), 5))
	c := sessionCookie(t, rec)

	out := httptest.NewRecorder()
	m.End(ctx, out, requestWith(c))

	cleared := sessionCookie(t, out)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
	assert.Equal(t, 0, st.Len())

	_, ok := m.Current(requestWith(c))
	assert.False(t, ok, "a replayed cookie must not survive logout")

	// Idempotent on an anonymous request.
	m.End(ctx, httptest.NewRecorder(), requestWith(nil))
}

func TestManager_ExpiredSession(t *testing.T) {
	m, _ := newTestManager(t)
	now := time.Now()
	m.now = func() time.Time { return now.Add(-2 * time.Hour) }

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, requestWith(nil), 9))

	_, ok := m.Current(requestWith(sessionCookie(t, rec)))
	assert.False(t, ok)
}

func TestManager_DevelopmentCookieNotSecure(t *testing.T) {
	m := NewManager(NewMemoryStore(), testSecret, time.Hour, false, logging.Nop{})

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, requestWith(nil), 1))
	assert.False(t, sessionCookie(t, rec).Secure)
}

func TestRequireAuthenticated(t *testing.T) {
	m, _ := newTestManager(t)

	var gotID int64
	var called bool
	h := m.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous is redirected", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestWith(nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
		assert.False(t, called)
		assert.Empty(t, rec.Result().Cookies(), "denial must not touch session state")
	})

	t.Run("authenticated passes through", func(t *testing.T) {
		called = false
		login := httptest.NewRecorder()
		require.NoError(t, m.Start(context.Background(), login, requestWith(nil), 11))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestWith(sessionCookie(t, login)))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, called)
		assert.Equal(t, int64(11), gotID)
	})
}

func TestUserIDFromContext_Missing(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
}
