package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func TestSessionFlashSurvivesRedirect(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	// First request: queue a flash and commit, as a POST handler does
	// before redirecting.
	sess, err := sm.Load(ctx, requestWithCookie("test_session", ""))
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Invoice created"})

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, requestWithCookie("test_session", ""), sess))
	require.NotEmpty(t, sess.ID)

	// Follow-up request with the same cookie must still see the flash.
	next, err := sm.Load(ctx, requestWithCookie("test_session", sess.ID))
	require.NoError(t, err)

	flash := next.PopFlash()
	require.NotNil(t, flash)
	require.Equal(t, "success", flash.Kind)
	require.Equal(t, "Invoice created", flash.Message)

	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, requestWithCookie("test_session", sess.ID), next))

	// Popping consumed it: the request after the render starts clean.
	third, err := sm.Load(ctx, requestWithCookie("test_session", sess.ID))
	require.NoError(t, err)
	require.Nil(t, third.PopFlash())
}

func TestSessionValuesRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, requestWithCookie("test_session", ""))
	require.NoError(t, err)
	sess.Set("csrf", "token-123")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, requestWithCookie("test_session", ""), sess))

	next, err := sm.Load(ctx, requestWithCookie("test_session", sess.ID))
	require.NoError(t, err)
	require.Equal(t, "token-123", next.Get("csrf"))
}
