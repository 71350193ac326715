package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsm-recorder/backend/pkg/apperr"
)

func record(fn func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	var parsed map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	return w, parsed
}

func TestEnvelopeIsFlat(t *testing.T) {
	w, parsed := record(func(c *gin.Context) {
		OK(c, gin.H{"count": 3, "palabra": "hola"})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, parsed["success"])
	assert.Equal(t, float64(3), parsed["count"])
	assert.Equal(t, "hola", parsed["palabra"])
	assert.NotContains(t, parsed, "data")
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("duplicate"), http.StatusConflict},
		{apperr.Storef(errors.New("x"), "db"), http.StatusInternalServerError},
		{apperr.Storagef(errors.New("x"), "s3"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w, parsed := record(func(c *gin.Context) { Error(c, tc.err) })
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, false, parsed["success"])
		assert.NotEmpty(t, parsed["error"])
	}
}

func TestErrorWithExtraFields(t *testing.T) {
	w, parsed := record(func(c *gin.Context) {
		ErrorWith(c, apperr.Conflict("palabra already exists"), gin.H{"palabra": gin.H{"id": 1, "nombre": "hola"}})
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, parsed["success"])
	assert.Equal(t, "palabra already exists", parsed["error"])
	existing := parsed["palabra"].(map[string]interface{})
	assert.Equal(t, "hola", existing["nombre"])
}

func TestServiceUnavailablePayload(t *testing.T) {
	w, parsed := record(func(c *gin.Context) {
		ServiceUnavailable(c, gin.H{"status": "unhealthy", "error": "down"})
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, parsed["success"])
	assert.Equal(t, "unhealthy", parsed["status"])
}
