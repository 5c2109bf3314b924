package debt

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/api/debt", h.MountRoutes)
	r.Route("/api/sales", h.MountSaleRoutes)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerDebtLifecycle(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()))

	rec := do(router, http.MethodPost, "/api/debt", `{"customerName":"Ramesh","customerMobile":"9822012345","initialAmount":"1000","dueDate":"2026-11-30"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d Debt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	require.NotNil(t, d.DueDate)

	rec = do(router, http.MethodPost, "/api/debt/"+d.ID.String()+"/pay", `{"paymentAmount":"1200"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Payment (₹1200) exceeds remaining balance (₹1000)."}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/debt/"+d.ID.String()+"/pay", `{"paymentAmount":"1000","method":"Card"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, StatusPaid, d.Status)

	rec = do(router, http.MethodPost, "/api/debt/"+d.ID.String()+"/pay", `{"paymentAmount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"This debt is already fully paid."}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/debt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandlerDebtErrors(t *testing.T) {
	router := newTestRouter(newTestService(newMemoryRepo()))

	rec := do(router, http.MethodPost, "/api/debt", `{"customerName":"Ramesh"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Customer name, mobile, and amount are required."}`, rec.Body.String())

	missing := uuid.New().String()
	rec = do(router, http.MethodPost, "/api/debt/"+missing+"/pay", `{"paymentAmount":"10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Debt record not found."}`, rec.Body.String())

	rec = do(router, http.MethodPost, "/api/debt/"+missing+"/pay", `{"paymentAmount":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid payment amount."}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/debt/"+missing, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodPost, "/api/sales/abc/debt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
