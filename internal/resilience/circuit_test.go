package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     reset,
	})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func callOK(ctx context.Context) (string, error) { return "ok", nil }

func callFail(ctx context.Context) (string, error) { return "", eris.New("upstream down") }

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb, _ := testBreaker(3, time.Minute)

	for i := 0; i < 10; i++ {
		val, err := ExecuteVal(context.Background(), cb, callOK)
		require.NoError(t, err)
		assert.Equal(t, "ok", val)
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := testBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		ExecuteVal(context.Background(), cb, callFail)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	_, err := ExecuteVal(context.Background(), cb, callOK)
	assert.True(t, eris.Is(err, ErrCircuitOpen))
}

func TestBreakerSuccessResetsFailureRun(t *testing.T) {
	cb, _ := testBreaker(3, time.Minute)

	ExecuteVal(context.Background(), cb, callFail)
	ExecuteVal(context.Background(), cb, callFail)
	ExecuteVal(context.Background(), cb, callOK)
	ExecuteVal(context.Background(), cb, callFail)
	ExecuteVal(context.Background(), cb, callFail)

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerHalfOpenProbeCloses(t *testing.T) {
	cb, now := testBreaker(2, 30*time.Second)

	ExecuteVal(context.Background(), cb, callFail)
	ExecuteVal(context.Background(), cb, callFail)
	require.Equal(t, CircuitOpen, cb.State())

	*now = now.Add(31 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	val, err := ExecuteVal(context.Background(), cb, callOK)
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	cb, now := testBreaker(2, 30*time.Second)

	ExecuteVal(context.Background(), cb, callFail)
	ExecuteVal(context.Background(), cb, callFail)
	*now = now.Add(31 * time.Second)

	_, err := ExecuteVal(context.Background(), cb, callFail)
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, cb.State())

	// The reset window starts over after the failed probe.
	_, err = ExecuteVal(context.Background(), cb, callOK)
	assert.True(t, eris.Is(err, ErrCircuitOpen))
}

func TestBreakerShouldTripFilter(t *testing.T) {
	benign := eris.New("no rows")
	cb, _ := testBreaker(1, time.Minute)
	cb.cfg.ShouldTrip = func(err error) bool { return !eris.Is(err, benign) }

	ExecuteVal(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 0, benign
	})
	assert.Equal(t, CircuitClosed, cb.State())

	ExecuteVal(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 0, eris.New("timeout")
	})
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestBreakerOnStateChange(t *testing.T) {
	var transitions []string
	cb, now := testBreaker(1, time.Second)
	cb.cfg.OnStateChange = func(from, to CircuitState) {
		transitions = append(transitions, from.String()+">"+to.String())
	}

	ExecuteVal(context.Background(), cb, callFail)
	*now = now.Add(2 * time.Second)
	ExecuteVal(context.Background(), cb, callOK)

	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
}

func TestBreakerReset(t *testing.T) {
	cb, _ := testBreaker(1, time.Hour)

	ExecuteVal(context.Background(), cb, callFail)
	require.Equal(t, CircuitOpen, cb.State())

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())

	val, err := ExecuteVal(context.Background(), cb, callOK)
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
}
