package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/incidents":                                   "/api/incidents",
		"/api/admin/users/64f1c0ffee000000000000a1":        "/api/admin/users/:id",
		"/api/admin/incidents/64f1c0ffee000000000000a1/status": "/api/admin/incidents/:id/status",
		"/api/incidents/user/64f1c0ffee000000000000a1":     "/api/incidents/user/:id",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePath(in), in)
	}
}
