package resilience

import (
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", NewTransientError(eris.New("429 too many requests"), 429), true},
		{"transient deep in chain", eris.Wrap(NewTransientError(eris.New("503"), 503), "openai: generate"), true},
		{"rate limit message", eris.New("Rate limit reached for gpt-4o-mini"), true},
		{"overloaded message", eris.New("the model is currently overloaded"), true},
		{"gemini exhausted message", eris.New("resource has been exhausted (e.g. check quota)"), true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"dns failure", eris.New("dial tcp: lookup api.openai.com: no such host"), true},
		{"io timeout", eris.New("read tcp 10.0.0.1:443: i/o timeout"), true},
		{"bad api key", eris.New("401 invalid authentication"), false},
		{"schema violation", eris.New("response did not match schema"), false},
		{"circuit open", ErrCircuitOpen, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	cause := eris.New("bad gateway")
	te := NewTransientError(cause, 502)

	assert.True(t, eris.Is(te, cause))
	assert.Equal(t, 502, te.StatusCode)
	assert.Equal(t, "bad gateway", te.Error())
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
