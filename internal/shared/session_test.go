package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "sf_session", "session-secret", time.Hour, false), mr
}

func requestWithCookie(sm *SessionManager, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: value})
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	sm, mr := newTestSessions(t)

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	sess.SetUser("42")
	sess.Set("locale", "en")

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))
	assert.True(t, mr.Exists(sessionKeyPrefix+sess.ID))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sm.CookieValue(sess.ID), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	loaded, err := sm.Load(ctx, requestWithCookie(sm, cookies[0].Value))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "42", loaded.User())
	assert.Equal(t, "en", loaded.Get("locale"))
}

func TestSessionRejectsForgedCookie(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestSessions(t)

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	sess.SetUser("42")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	for _, value := range []string{sess.ID, sess.ID + ".bogus", "." + sess.ID} {
		loaded, err := sm.Load(ctx, requestWithCookie(sm, value))
		require.NoError(t, err)
		assert.NotEqual(t, sess.ID, loaded.ID, value)
		assert.Empty(t, loaded.User(), value)
	}
}

func TestSessionRenewDropsPreviousKey(t *testing.T) {
	ctx := context.Background()
	sm, mr := newTestSessions(t)

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	sess.Set("cart", "3")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))
	oldID := sess.ID

	loaded, err := sm.Load(ctx, requestWithCookie(sm, sm.CookieValue(oldID)))
	require.NoError(t, err)
	sm.Renew(loaded)
	loaded.SetUser("9")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, loaded))

	assert.NotEqual(t, oldID, loaded.ID)
	assert.False(t, mr.Exists(sessionKeyPrefix+oldID))
	assert.True(t, mr.Exists(sessionKeyPrefix+loaded.ID))
	assert.Equal(t, "3", loaded.Get("cart"))
}

func TestSessionCommitExtendsTTL(t *testing.T) {
	ctx := context.Background()
	sm, mr := newTestSessions(t)

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	mr.FastForward(30 * time.Minute)
	loaded, err := sm.Load(ctx, requestWithCookie(sm, sm.CookieValue(sess.ID)))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, loaded))

	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+sess.ID))
}

func TestSessionDestroyClearsCookie(t *testing.T) {
	ctx := context.Background()
	sm, mr := newTestSessions(t)

	sess, err := sm.Load(ctx, requestWithCookie(sm, ""))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), nil, sess))

	sm.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, nil, sess))

	assert.False(t, mr.Exists(sessionKeyPrefix+sess.ID))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
