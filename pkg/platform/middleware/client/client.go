// Package client identifies the browser client behind a request. Views and
// session gates are owned by a client, so every route needs one.
package client

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"worldfolio/pkg/requestcontext"
)

const (
	CookieName = "wf_client"
	HeaderName = "X-Client-ID"

	cookieMaxAge = 365 * 24 * time.Hour
)

// Middleware resolves the client ID from the header or cookie, issuing a new
// one (and the cookie) when neither carries a valid UUID.
func Middleware(secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientID := fromRequest(r)
			if clientID != "" {
				ctx = requestcontext.WithClientID(ctx, clientID)
			} else {
				clientID = uuid.NewString()
				ctx = requestcontext.WithIssuedClientID(ctx, clientID)
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    clientID,
					Path:     "/",
					MaxAge:   int(cookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(HeaderName, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func fromRequest(r *http.Request) string {
	if v := r.Header.Get(HeaderName); valid(v) {
		return v
	}
	if c, err := r.Cookie(CookieName); err == nil && valid(c.Value) {
		return c.Value
	}
	return ""
}

func valid(v string) bool {
	if v == "" {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}
