package resilience

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxgate/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBreaker(threshold int, cooldown time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(threshold, cooldown, testLogger())
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, "closed", b.Status())

	require.NoError(t, b.Allow())
	b.RecordFailure()

	assert.Equal(t, "open", b.Status())
	require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, "closed", b.Status())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)

	*now = now.Add(59 * time.Second)
	require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)

	*now = now.Add(time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, "half-open", b.Status())

	// Only one trial is admitted while the probe is in flight.
	require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	*now = now.Add(time.Minute)
	require.NoError(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, "closed", b.Status())
	require.NoError(t, b.Allow())
}

func TestBreaker_ReleasedTrialCanBeRetaken(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	*now = now.Add(time.Minute)
	require.NoError(t, b.Allow())

	// The trial caller cancelled; the probe slot must not stay occupied.
	b.ReleaseTrial()
	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, "closed", b.Status())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	*now = now.Add(time.Minute)
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, "open", b.Status())

	// The cooldown restarts from the failed probe.
	*now = now.Add(30 * time.Second)
	require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)
	*now = now.Add(30 * time.Second)
	require.NoError(t, b.Allow())
}
