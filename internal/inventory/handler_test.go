package inventory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	h := NewHandler(nil, NewService(repo, nil, nil, nil))
	r := chi.NewRouter()
	r.Route("/api/products", h.MountRoutes)
	return r
}

func TestHandlerCreateAndRestock(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"name":"Gold Ring","category":"Rings","stock":5,"weight":"50"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 5, created.Stock)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products/"+created.ID.String()+"/restock",
		strings.NewReader(`{"quantity":1,"weight":"8.5"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var restocked Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restocked))
	assert.Equal(t, 6, restocked.Stock)
	assert.True(t, restocked.Weight.Equal(grams("58.5")))
}

func TestHandlerValidationAndNotFound(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"category":"Rings"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid product data.")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/9a4f0a4e-4d8c-4c51-8e5a-0d6c2c1f0b11", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Product not found."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/products/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
