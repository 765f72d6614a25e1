package evaluator_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tender_award/internal/access"
	"tender_award/internal/http-server/handlers/api/evaluator"
	"tender_award/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()

	acl, err := access.New("authority")
	assert.NoError(t, err)

	storage := memory.New(acl)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Route("/evaluators", func(r chi.Router) {
			r.Post("/new", evaluator.NewPostEvaluator(log, storage))
			r.Get("/{username}", evaluator.NewGetEvaluator(log, storage))
			r.Delete("/{username}", evaluator.NewDeleteEvaluator(log, storage))
		})
		r.Get("/authority", evaluator.NewGetAuthority(log, storage))
		r.Put("/authority", evaluator.NewPutAuthority(log, storage))
	})

	return router
}

func do(t *testing.T, router *chi.Mux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestEvaluatorAdministration(t *testing.T) {
	router := newRouter(t)

	// Unknown identity is not an evaluator.
	w := do(t, router, http.MethodGet, "/api/evaluators/eva", "")
	assert.Equal(t, 200, w.Code)

	var resp evaluator.EvaluatorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	check.False(t, resp.IsEvaluator)

	w = do(t, router, http.MethodPost, "/api/evaluators/new?username=authority", `{"username":"eva"}`)
	assert.Equal(t, 200, w.Code)

	w = do(t, router, http.MethodGet, "/api/evaluators/eva", "")
	assert.Equal(t, 200, w.Code)
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	check.True(t, resp.IsEvaluator)

	// Adding twice is a conflict.
	w = do(t, router, http.MethodPost, "/api/evaluators/new?username=authority", `{"username":"eva"}`)
	check.Equal(t, 409, w.Code)

	// Only the authority may add evaluators.
	w = do(t, router, http.MethodPost, "/api/evaluators/new?username=eva", `{"username":"other"}`)
	check.Equal(t, 403, w.Code)

	w = do(t, router, http.MethodDelete, "/api/evaluators/eva?username=authority", "")
	assert.Equal(t, 200, w.Code)

	// Removing again is not found.
	w = do(t, router, http.MethodDelete, "/api/evaluators/eva?username=authority", "")
	check.Equal(t, 404, w.Code)
}

func TestAuthorityTransfer(t *testing.T) {
	router := newRouter(t)

	w := do(t, router, http.MethodGet, "/api/authority", "")
	assert.Equal(t, 200, w.Code)

	var resp evaluator.AuthorityResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	check.Equal(t, "authority", resp.Authority)

	// A non-authority cannot transfer.
	w = do(t, router, http.MethodPut, "/api/authority?username=someone", `{"username":"new"}`)
	check.Equal(t, 403, w.Code)

	w = do(t, router, http.MethodPut, "/api/authority?username=authority", `{"username":"new"}`)
	assert.Equal(t, 200, w.Code)
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	check.Equal(t, "new", resp.Authority)

	// The old authority lost its privileges.
	w = do(t, router, http.MethodPost, "/api/evaluators/new?username=authority", `{"username":"eva"}`)
	check.Equal(t, 403, w.Code)

	w = do(t, router, http.MethodPost, "/api/evaluators/new?username=new", `{"username":"eva"}`)
	check.Equal(t, 200, w.Code)
}
