package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	handler := http.NewServeMux()
	srv := New(":8080", handler)

	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, http.Handler(handler), srv.Handler)

	// Write timeout has to cover a full model round trip; a too-small value
	// cuts generation responses off mid-flight.
	assert.Equal(t, writeTimeout, srv.WriteTimeout)
	assert.Greater(t, srv.WriteTimeout, srv.ReadTimeout)
	assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
	assert.NotZero(t, srv.IdleTimeout)
}
