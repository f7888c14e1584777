package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAccessLog_WritesOneLinePerRequest(t *testing.T) {
	var buf bytes.Buffer
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	chain := AccessLog(zerolog.New(&buf))
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	line := buf.String()
	assert.Contains(t, line, `"status":202`)
	assert.Contains(t, line, `"path":"/v1/health"`)
	assert.Contains(t, line, `"comp":"http"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}
