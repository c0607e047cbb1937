package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, ClientID(ctx))
	assert.Empty(t, RequestID(ctx))

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx = WithClientID(ctx, "client-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, "client-1", ClientID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8", UserAgent(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
