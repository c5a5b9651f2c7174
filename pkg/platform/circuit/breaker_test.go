package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("catalog-cache")
	assert.Equal(t, "catalog-cache", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.False(t, b.IsOpen())
}

func TestBreakerTransitions(t *testing.T) {
	type step struct {
		fail        bool
		wantOpen    bool
		wantOpened  bool
		wantClosed  bool
		wantPrimary bool
	}
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the threshold failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{fail: true},
				{fail: true},
				{fail: true, wantOpen: true, wantOpened: true},
				{fail: true, wantOpen: true},
			},
		},
		{
			name: "success clears a partial failure run",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{fail: true},
				{wantPrimary: true},
				{fail: true},
				{fail: true, wantOpen: true, wantOpened: true},
			},
		},
		{
			name: "closes after consecutive successes",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true, wantOpened: true},
				{wantOpen: true},
				{wantPrimary: true, wantClosed: true},
				{wantPrimary: true},
			},
		},
		{
			name: "failure while open restarts the success run",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true, wantOpened: true},
				{wantOpen: true},
				{fail: true, wantOpen: true},
				{wantOpen: true},
				{wantPrimary: true, wantClosed: true},
			},
		},
		{
			name: "non-positive thresholds keep defaults",
			opts: []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)},
			steps: []step{
				{fail: true}, {fail: true}, {fail: true}, {fail: true},
				{fail: true, wantOpen: true, wantOpened: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", tt.opts...)
			for i, s := range tt.steps {
				if s.fail {
					useFallback, change := b.RecordFailure()
					assert.Equal(t, s.wantOpen, useFallback, "step %d fallback", i)
					assert.Equal(t, s.wantOpened, change.Opened, "step %d opened", i)
				} else {
					usePrimary, change := b.RecordSuccess()
					assert.Equal(t, s.wantPrimary, usePrimary, "step %d primary", i)
					assert.Equal(t, s.wantClosed, change.Closed, "step %d closed", i)
				}
				require.Equal(t, s.wantOpen, b.IsOpen(), "step %d state", i)
			}
		})
	}
}

func TestBreakerReset(t *testing.T) {
	b := New("test", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	// counters were cleared too
	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback)
}
