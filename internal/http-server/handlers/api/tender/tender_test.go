package tender_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tender_award/internal/access"
	"tender_award/internal/http-server/handlers/api/tender"
	"tender_award/internal/models/offer"
	modeltender "tender_award/internal/models/tender"
	"tender_award/internal/storage/memory"

	"github.com/go-chi/chi/v5"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

type testServer struct {
	router  *chi.Mux
	storage *memory.Storage
	clock   *time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	acl, err := access.New("authority")
	assert.NoError(t, err)
	acl.AddEvaluator("eva")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := &testServer{clock: &now}
	ts.storage = memory.NewWithClock(acl, func() time.Time { return *ts.clock })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts.router = chi.NewRouter()
	ts.router.Route("/api/tenders", func(r chi.Router) {
		r.Post("/new", tender.NewPostTender(log, ts.storage))
		r.Get("/{tenderId}", tender.NewGetTender(log, ts.storage))
		r.Post("/{tenderId}/close", tender.NewCloseOfferPeriod(log, ts.storage))
		r.Post("/{tenderId}/evaluated", tender.NewMarkAsEvaluated(log, ts.storage))
		r.Post("/{tenderId}/winner", tender.NewCalculateWinner(log, ts.storage))
		r.Get("/{tenderId}/participants", tender.NewGetParticipants(log, ts.storage))
	})

	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	return w
}

const validTenderBody = `{"description":"road resurfacing","maxPrice":1000,"deadlineDays":7,"weightPrice":60,"weightQuality":40}`

func TestPostTender(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/tenders/new?username=authority", validTenderBody)
	assert.Equal(t, 200, w.Code)

	var resp modeltender.TenderResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)

	check.Equal(t, int64(1), resp.ID)
	check.Equal(t, modeltender.StatusOpen, resp.Status)
	check.Equal(t, int64(60), resp.WeightPrice)
}

func TestPostTender_MissingUsername(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/tenders/new", validTenderBody)
	check.Equal(t, 401, w.Code)
}

func TestPostTender_NotAuthority(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/tenders/new?username=provider", validTenderBody)
	check.Equal(t, 403, w.Code)
}

func TestPostTender_BadWeights(t *testing.T) {
	ts := newTestServer(t)

	body := `{"description":"d","maxPrice":1000,"deadlineDays":7,"weightPrice":60,"weightQuality":50}`
	w := ts.do(t, http.MethodPost, "/api/tenders/new?username=authority", body)
	check.Equal(t, 400, w.Code)
	check.True(t, strings.Contains(w.Body.String(), "sum to 100"))
}

func TestPostTender_UnknownField(t *testing.T) {
	ts := newTestServer(t)

	body := `{"description":"d","maxPrice":1000,"deadlineDays":7,"weightPrice":60,"weightQuality":40,"bogus":1}`
	w := ts.do(t, http.MethodPost, "/api/tenders/new?username=authority", body)
	check.Equal(t, 400, w.Code)
}

func TestGetTender_NotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/tenders/42", "")
	check.Equal(t, 404, w.Code)
}

func TestGetTender_BadID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/tenders/abc", "")
	check.Equal(t, 400, w.Code)
}

func TestTenderLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/tenders/new?username=authority", validTenderBody)
	assert.Equal(t, 200, w.Code)

	_, err := ts.storage.SaveOffer("providerA", offer.OfferRequest{
		TenderID: 1, Price: 500, DocumentationRef: "doc://a",
	})
	assert.NoError(t, err)
	_, err = ts.storage.SaveOffer("providerB", offer.OfferRequest{
		TenderID: 1, Price: 1000, DocumentationRef: "doc://b",
	})
	assert.NoError(t, err)

	// Closing before the deadline is a deadline violation.
	w = ts.do(t, http.MethodPost, "/api/tenders/1/close?username=authority", "")
	check.Equal(t, 422, w.Code)

	*ts.clock = ts.clock.Add(8 * 24 * time.Hour)

	w = ts.do(t, http.MethodPost, "/api/tenders/1/close?username=authority", "")
	assert.Equal(t, 200, w.Code)

	// Marking as evaluated with unevaluated offers is rejected.
	w = ts.do(t, http.MethodPost, "/api/tenders/1/evaluated?username=authority", "")
	check.Equal(t, 400, w.Code)

	_, err = ts.storage.EvaluateOffer("eva", 1, "providerA", 50)
	assert.NoError(t, err)
	_, err = ts.storage.EvaluateOffer("eva", 1, "providerB", 90)
	assert.NoError(t, err)

	w = ts.do(t, http.MethodPost, "/api/tenders/1/evaluated?username=authority", "")
	assert.Equal(t, 200, w.Code)

	w = ts.do(t, http.MethodPost, "/api/tenders/1/winner?username=authority", "")
	assert.Equal(t, 200, w.Code)

	var resp modeltender.TenderResponse
	err = json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	check.Equal(t, modeltender.StatusFinalized, resp.Status)
	check.Equal(t, "providerB", resp.Winner)

	// A repeated winner calculation is a conflict.
	w = ts.do(t, http.MethodPost, "/api/tenders/1/winner?username=authority", "")
	check.Equal(t, 409, w.Code)
}

func TestGetParticipants(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/tenders/new?username=authority", validTenderBody)
	assert.Equal(t, 200, w.Code)

	for _, provider := range []string{"b", "a"} {
		_, err := ts.storage.SaveOffer(provider, offer.OfferRequest{
			TenderID: 1, Price: 500, DocumentationRef: "doc://x",
		})
		assert.NoError(t, err)
	}

	w = ts.do(t, http.MethodGet, "/api/tenders/1/participants", "")
	assert.Equal(t, 200, w.Code)

	var participants []string
	err := json.Unmarshal(w.Body.Bytes(), &participants)
	assert.NoError(t, err)
	check.Equal(t, []string{"b", "a"}, participants)
}
