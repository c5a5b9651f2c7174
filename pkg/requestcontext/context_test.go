package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsDefaultWhenUnset(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, EvaluatorID(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessorsRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)
	ctx := WithEvaluatorID(context.Background(), "inspector-7")
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithClientMetadata(ctx, "10.0.0.5", "tablet/1.0")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, "inspector-7", EvaluatorID(ctx).String())
	assert.Equal(t, "req-42", RequestID(ctx))
	assert.Equal(t, "10.0.0.5", ClientIP(ctx))
	assert.Equal(t, "tablet/1.0", UserAgent(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
