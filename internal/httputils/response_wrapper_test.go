package httputils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseWriterCapturesFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusUnauthorized)
	rw.WriteHeader(http.StatusOK)
	n, err := rw.Write([]byte(`{"messages":[]}`))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rw.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, n, rw.BytesWritten)
	assert.Same(t, rec, rw.Unwrap())
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())
	_, _ = rw.Write([]byte("ok"))

	assert.Equal(t, http.StatusOK, rw.StatusCode)
	assert.True(t, rw.HeaderWritten)
}
