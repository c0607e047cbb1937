package testutil

import (
	"net/http"

	"worldfolio/pkg/platform/middleware/client"
	"worldfolio/pkg/requestcontext"
)

// WithClientID attaches a browser client ID the way the client middleware
// would, both in the context and as the header handlers may echo.
func WithClientID(req *http.Request, clientID string) *http.Request {
	req.Header.Set(client.HeaderName, clientID)
	ctx := requestcontext.WithClientID(req.Context(), clientID)
	return req.WithContext(ctx)
}
