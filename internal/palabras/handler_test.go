package palabras

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsm-recorder/backend/internal/models"
	"github.com/lsm-recorder/backend/pkg/apperr"
)

// fakeStore is an in-memory PalabraStore with the repository's uniqueness
// contract.
type fakeStore struct {
	palabras  []models.Palabra
	nextID    int
	listErr   error
	getErr    error
	createErr error
	deleteErr error
}

func (f *fakeStore) List(_ context.Context, search string) ([]models.Palabra, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Palabra
	for _, p := range f.palabras {
		if search == "" || strings.Contains(strings.ToLower(p.Nombre), strings.ToLower(search)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByNombre(_ context.Context, nombre string) (*models.Palabra, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i, p := range f.palabras {
		if p.Nombre == strings.TrimSpace(nombre) {
			return &f.palabras[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, nombre string) (*models.Palabra, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	nombre = strings.TrimSpace(nombre)
	for _, p := range f.palabras {
		if p.Nombre == nombre {
			return nil, apperr.Conflict("palabra already exists")
		}
	}
	f.nextID++
	p := models.Palabra{ID: f.nextID, Nombre: nombre}
	f.palabras = append(f.palabras, p)
	return &p, nil
}

func (f *fakeStore) Delete(_ context.Context, id int) (*models.Palabra, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	for i, p := range f.palabras {
		if p.ID == id {
			f.palabras = append(f.palabras[:i], f.palabras[i+1:]...)
			return &p, nil
		}
	}
	return nil, nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/palabras", h.List)
	api.POST("/palabras", h.Create)
	api.DELETE("/palabras/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestCreatePalabra(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler(store, nil)
	r := newTestRouter(h)

	w, parsed := doJSON(t, r, http.MethodPost, "/api/palabras", `{"nombre":"hola"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, parsed["success"])
	palabra := parsed["palabra"].(map[string]interface{})
	assert.Equal(t, "hola", palabra["nombre"])
}

func TestCreateDuplicatePalabraReturnsExisting(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler(store, nil)
	r := newTestRouter(h)

	_, _ = doJSON(t, r, http.MethodPost, "/api/palabras", `{"nombre":"hola"}`)
	w, parsed := doJSON(t, r, http.MethodPost, "/api/palabras", `{"nombre":"hola"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, parsed["success"])
	existing := parsed["palabra"].(map[string]interface{})
	assert.Equal(t, "hola", existing["nombre"])
	assert.Len(t, store.palabras, 1)
}

func TestCreatePalabraValidation(t *testing.T) {
	h := NewHandler(&fakeStore{}, nil)
	r := newTestRouter(h)

	for _, body := range []string{`{}`, `{"nombre":""}`, `{"nombre":"   "}`} {
		w, parsed := doJSON(t, r, http.MethodPost, "/api/palabras", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, false, parsed["success"])
	}
}

func TestListPalabrasSearch(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler(store, nil)
	r := newTestRouter(h)

	for _, nombre := range []string{"hola", "hospital", "adios"} {
		_, _ = doJSON(t, r, http.MethodPost, "/api/palabras", `{"nombre":"`+nombre+`"}`)
	}

	w, parsed := doJSON(t, r, http.MethodGet, "/api/palabras?search=ho", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), parsed["count"])

	w, parsed = doJSON(t, r, http.MethodGet, "/api/palabras", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), parsed["count"])
}

func TestDeletePalabra(t *testing.T) {
	store := &fakeStore{}
	h := NewHandler(store, nil)
	r := newTestRouter(h)

	_, _ = doJSON(t, r, http.MethodPost, "/api/palabras", `{"nombre":"hola"}`)

	w, parsed := doJSON(t, r, http.MethodDelete, "/api/palabras/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	deleted := parsed["deleted"].(map[string]interface{})
	assert.Equal(t, "hola", deleted["nombre"])
	assert.Empty(t, store.palabras)

	w, parsed = doJSON(t, r, http.MethodDelete, "/api/palabras/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, parsed["success"])

	w, _ = doJSON(t, r, http.MethodDelete, "/api/palabras/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
