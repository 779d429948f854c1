package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(0.0001, 2)

	if !rl.allow("1.2.3.4") {
		t.Error("first request denied")
	}
	if !rl.allow("1.2.3.4") {
		t.Error("second request denied within burst")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request allowed beyond burst")
	}

	// A different IP has its own bucket.
	if !rl.allow("5.6.7.8") {
		t.Error("fresh IP denied")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "192.0.2.1:5000",
			want:       "192.0.2.1",
		},
		{
			name:       "headers ignored without trust",
			remoteAddr: "192.0.2.1:5000",
			realIP:     "203.0.113.9",
			want:       "192.0.2.1",
		},
		{
			name:       "x-real-ip preferred",
			remoteAddr: "10.0.0.1:5000",
			realIP:     "203.0.113.9",
			forwarded:  "198.51.100.2",
			trustProxy: true,
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for first entry",
			remoteAddr: "10.0.0.1:5000",
			forwarded:  "198.51.100.2, 10.0.0.1",
			trustProxy: true,
			want:       "198.51.100.2",
		},
		{
			name:       "garbage header falls back",
			remoteAddr: "10.0.0.1:5000",
			realIP:     "not-an-ip",
			trustProxy: true,
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
