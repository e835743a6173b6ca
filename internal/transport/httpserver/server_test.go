package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"medminder-go/internal/config"
)

func TestNewServerAddress(t *testing.T) {
	srv := New(config.Config{HTTPHost: "127.0.0.1", HTTPPort: "9090"}, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
	assert.Equal(t, idleTimeout, srv.IdleTimeout)

	srv = New(config.Config{HTTPPort: "8080"}, http.NotFoundHandler())
	assert.Equal(t, ":8080", srv.Addr)
}
