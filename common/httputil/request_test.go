package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for first entry",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.195",
		},
		{
			name:       "x-real-ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			remoteAddr: "10.0.0.1:1234",
			want:       "198.51.100.7",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.10:5555",
			want:       "192.0.2.10",
		},
		{
			name:       "remote addr that is not host:port",
			remoteAddr: "pipe",
			want:       "pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestParseIntParam(t *testing.T) {
	assert.Equal(t, 50, ParseIntParam("", 50))
	assert.Equal(t, 10, ParseIntParam("10", 50))
	assert.Equal(t, 10, ParseIntParam(" 10 ", 50))
	assert.Equal(t, -3, ParseIntParam("-3", 50))
	assert.Equal(t, 50, ParseIntParam("ten", 50))
}

func TestHeaderOrQuery(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhook?namespace=fromquery", nil)
	assert.Equal(t, "fromquery", HeaderOrQuery(r, "X-Namespace", "namespace"))

	r.Header.Set("X-Namespace", "fromheader")
	assert.Equal(t, "fromheader", HeaderOrQuery(r, "X-Namespace", "namespace"))

	empty := httptest.NewRequest("POST", "/webhook", nil)
	assert.Equal(t, "", HeaderOrQuery(empty, "X-Namespace", "namespace"))

	spaced := httptest.NewRequest("POST", "/webhook?namespace=%20demo", nil)
	assert.Equal(t, " demo", HeaderOrQuery(spaced, "X-Namespace", "namespace"))
}
