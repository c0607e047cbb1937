package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldfolio/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	var (
		seen   string
		issued bool
	)
	h := Middleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.ClientID(r.Context())
		issued = requestcontext.ClientIDIssued(r.Context())
	}))

	t.Run("issues a client id and cookie when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.True(t, issued)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, CookieName, cookies[0].Name)
		assert.Equal(t, seen, cookies[0].Value)
	})

	t.Run("reuses the cookie", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, id, seen)
		assert.False(t, issued)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, id)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: uuid.NewString()})
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, id, seen)
	})

	t.Run("ignores malformed ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderName, "not-a-uuid")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, "not-a-uuid", seen)
	})
}
