package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wmcproducts/partner-site/pkg/logging"
)

func newTestHandler(relay Relay) (*Handler, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	gw := NewGateway(relay, repo, GatewayConfig{}, logging.Default(), nil)
	return NewHandler(gw, repo, logging.Default()), repo
}

func postPartner(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/partner", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.SubmitPartnerForm(w, req)
	return w
}

func decodeSubmit(t *testing.T, w *httptest.ResponseRecorder) SubmitResponse {
	t.Helper()
	var resp SubmitResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestSubmitPartnerForm_Success(t *testing.T) {
	h, repo := newTestHandler(&fakeRelay{})

	w := postPartner(t, h, map[string]any{
		"first_name":     "John",
		"email":          "john@co.com",
		"message":        "hello",
		"company_type":   "supplier",
		"botcheck":       "",
		"terms_accepted": true,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if resp := decodeSubmit(t, w); resp.Status != "submitted" || resp.Message != SuccessMessage {
		t.Fatalf("unexpected response %+v", resp)
	}

	res, _ := repo.List(context.Background(), ListFilter{})
	if res.Total != 1 || res.Items[0].CompanyType != CompanyTypeSupplier {
		t.Fatalf("expected stored lead, got %+v", res)
	}
}

func TestSubmitPartnerForm_ValidationErrors(t *testing.T) {
	h, _ := newTestHandler(&fakeRelay{})

	w := postPartner(t, h, map[string]any{
		"first_name":     "John",
		"email":          "not-an-email",
		"terms_accepted": true,
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	resp := decodeSubmit(t, w)
	if resp.Errors[FieldEmail] != InvalidEmailFormat.Message() || resp.Errors[FieldMessage] != MissingMessage.Message() {
		t.Fatalf("unexpected errors %+v", resp.Errors)
	}
	if _, ok := resp.Errors[FieldName]; ok {
		t.Fatal("did not expect a name error")
	}
}

func TestSubmitPartnerForm_TermsRequired(t *testing.T) {
	h, _ := newTestHandler(&fakeRelay{})

	w := postPartner(t, h, map[string]any{
		"first_name": "John",
		"email":      "john@co.com",
		"message":    "hello",
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	if resp := decodeSubmit(t, w); resp.Errors[FieldTerms] == "" {
		t.Fatalf("expected terms error, got %+v", resp)
	}
}

func TestSubmitPartnerForm_SpamLooksLikeRelayFailure(t *testing.T) {
	spamHandler, spamRepo := newTestHandler(&fakeRelay{})
	spam := postPartner(t, spamHandler, map[string]any{
		"first_name":     "John",
		"email":          "john@co.com",
		"message":        "hello",
		"botcheck":       "http://spam.example",
		"terms_accepted": true,
	})

	failHandler, _ := newTestHandler(&fakeRelay{err: errors.New("relay down")})
	failed := postPartner(t, failHandler, map[string]any{
		"first_name":     "John",
		"email":          "john@co.com",
		"message":        "hello",
		"terms_accepted": true,
	})

	if spam.Code != failed.Code || spam.Body.String() != failed.Body.String() {
		t.Fatalf("spam response %d %q differs from failure %d %q", spam.Code, spam.Body.String(), failed.Code, failed.Body.String())
	}
	if res, _ := spamRepo.List(context.Background(), ListFilter{}); res.Total != 0 {
		t.Fatal("spam must not be stored")
	}
}

func TestSubmitPartnerForm_BadJSON(t *testing.T) {
	h, _ := newTestHandler(&fakeRelay{})
	req := httptest.NewRequest(http.MethodPost, "/api/partner", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.SubmitPartnerForm(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func newAdminRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/api/leads", h.ListLeads)
	r.Get("/admin/api/leads/{id}", h.GetLead)
	r.Patch("/admin/api/leads/{id}", h.UpdateLeadStatus)
	r.Delete("/admin/api/leads/{id}", h.DeleteLead)
	return r
}

func TestListLeads_FilterAndPaging(t *testing.T) {
	h, repo := newTestHandler(&fakeRelay{})
	ctx := context.Background()
	a, _ := repo.Create(ctx, sampleFields("a"))
	_, _ = repo.Create(ctx, sampleFields("b"))
	_, _ = repo.UpdateStatus(ctx, a.ID, StatusContacted)

	router := newAdminRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/admin/api/leads?status=contacted&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Limit != 10 || len(resp.Leads) != 1 || resp.Leads[0].ID != a.ID {
		t.Fatalf("unexpected response %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/api/leads?status=bogus", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d for bad status, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUpdateLeadStatus(t *testing.T) {
	h, repo := newTestHandler(&fakeRelay{})
	lead, _ := repo.Create(context.Background(), sampleFields("hello"))
	router := newAdminRouter(h)

	req := httptest.NewRequest(http.MethodPatch, "/admin/api/leads/"+lead.ID, strings.NewReader(`{"status":"reviewed"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	got, _ := repo.Get(context.Background(), lead.ID)
	if got.Status != StatusReviewed {
		t.Fatalf("expected reviewed, got %s", got.Status)
	}

	req = httptest.NewRequest(http.MethodPatch, "/admin/api/leads/"+lead.ID, strings.NewReader(`{"status":"done"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d for invalid status, got %d", http.StatusBadRequest, w.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/admin/api/leads/missing", strings.NewReader(`{"status":"archived"}`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for missing lead, got %d", http.StatusNotFound, w.Code)
	}
}

func TestDeleteLead(t *testing.T) {
	h, repo := newTestHandler(&fakeRelay{})
	lead, _ := repo.Create(context.Background(), sampleFields("hello"))
	router := newAdminRouter(h)

	for i, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := httptest.NewRequest(http.MethodDelete, "/admin/api/leads/"+lead.ID, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("delete #%d: expected status %d, got %d", i+1, want, w.Code)
		}
	}
}

type unavailableRepo struct{ *InMemoryRepository }

func (unavailableRepo) Get(ctx context.Context, id string) (*Lead, error) {
	return nil, storeErr("get", StoreUnavailable, errors.New("timeout"))
}

func TestGetLead_StoreUnavailable(t *testing.T) {
	repo := unavailableRepo{NewInMemoryRepository()}
	gw := NewGateway(&fakeRelay{}, repo, GatewayConfig{}, logging.Default(), nil)
	router := newAdminRouter(NewHandler(gw, repo, logging.Default()))

	req := httptest.NewRequest(http.MethodGet, "/admin/api/leads/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}
