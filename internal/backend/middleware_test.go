package backend

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestHeaderMiddleware(t *testing.T) {
	var seen http.Header
	hm := HeaderMiddleware{
		Headers: map[string]string{"X-Team": "frontend"},
		Proxied: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			seen = req.Header
			return httptest.NewRecorder().Result(), nil
		}),
	}

	req, err := http.NewRequest(http.MethodGet, "http://localhost:5000/api/hello", nil)
	require.NoError(t, err)

	res, err := hm.RoundTrip(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "frontend", seen.Get("X-Team"))
	assert.Empty(t, req.Header.Get("X-Team"), "caller's request must not be modified")
}
