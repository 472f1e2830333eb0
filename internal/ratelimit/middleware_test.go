package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientKeyHeaderPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded-for wins", map[string]string{
			"X-Forwarded-For":  "203.0.113.7, 10.0.0.1",
			"X-Real-Ip":        "198.51.100.2",
			"CF-Connecting-IP": "192.0.2.9",
		}, "203.0.113.7"},
		{"real-ip next", map[string]string{
			"X-Real-Ip":        "198.51.100.2",
			"CF-Connecting-IP": "192.0.2.9",
		}, "198.51.100.2"},
		{"cdn header last", map[string]string{
			"CF-Connecting-IP": "192.0.2.9",
		}, "192.0.2.9"},
		{"no identity", nil, UnknownClient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/slots", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientKey(r))
		})
	}
}

func TestMiddlewareQuotaHeadersAndRejection(t *testing.T) {
	clk := newFakeClock()
	limiter := NewLimiter(NewMemoryStore(clk), 2, time.Second, clk)

	handler := Middleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/slots", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	first := do()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, first.Header().Get("X-RateLimit-Reset"))

	do()

	third := do()
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Equal(t, "0", third.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", third.Header().Get("Retry-After"))
	assert.Contains(t, third.Body.String(), "rate_limited")

	// A different client identity is unaffected.
	r := httptest.NewRequest(http.MethodGet, "/slots", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.2")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
