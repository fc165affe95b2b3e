package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/imj25/digital-shield/internal/advice"
	"github.com/imj25/digital-shield/internal/cache"
	"github.com/imj25/digital-shield/internal/content"
	"github.com/imj25/digital-shield/internal/models"
	"github.com/imj25/digital-shield/internal/repo"
	"github.com/imj25/digital-shield/internal/services"
	"github.com/imj25/digital-shield/internal/session"
	"github.com/imj25/digital-shield/internal/utils"
)

type fakeAssistant struct {
	reply models.ChatReply
	err   error
}

func (f *fakeAssistant) Query(_ context.Context, _ repo.PathCache, _ string) (models.ChatReply, error) {
	return f.reply, f.err
}

type fakePredictor struct {
	loss     float64
	severity models.PredictionSeverity
	err      error
}

func (f *fakePredictor) Predict(_ context.Context, _ models.IncidentObservation) (models.LossPrediction, error) {
	if f.err != nil {
		return models.LossPrediction{}, f.err
	}
	return models.LossPrediction{PredictedLossM: f.loss, Severity: f.severity}, nil
}

func newTestHandler(t *testing.T, assistant services.AssistantAPI, predictor services.PredictorAPI) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(30*time.Minute, cache.NoopProvider{})
	advisor, err := advice.NewAdvisor("", logger)
	if err != nil {
		t.Fatalf("NewAdvisor: %v", err)
	}
	library, err := content.Load("")
	if err != nil {
		t.Fatalf("content.Load: %v", err)
	}
	svc := services.NewDashboardService(logger, assistant, predictor, store, advisor)
	return NewHandler(logger, svc, library)
}

func TestChatEndpoint(t *testing.T) {
	assistant := &fakeAssistant{reply: models.ChatReply{
		Response:         "use a password manager",
		SuggestedQueries: []string{"what is phishing"},
		ResolvedPath:     "/api/v1/query",
		Attempts:         2,
	}}
	h := newTestHandler(t, assistant, &fakePredictor{loss: 1, severity: models.PredictionSeverityLow})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"how do I stay safe"}`))
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "use a password manager" {
		t.Fatalf("response = %q", resp.Response)
	}
	if resp.ResolvedPath != "/api/v1/query" {
		t.Fatalf("resolved path = %q", resp.ResolvedPath)
	}

	var sawCookie bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			sawCookie = true
		}
	}
	if !sawCookie {
		t.Fatal("expected a session cookie on first contact")
	}
}

func TestChatEmptyQuery(t *testing.T) {
	h := newTestHandler(t, &fakeAssistant{}, &fakePredictor{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"   "}`))
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var payload errorPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Kind != string(utils.KindInvalidInput) {
		t.Fatalf("kind = %q", payload.Error.Kind)
	}
}

func TestChatUpstreamExhausted(t *testing.T) {
	assistant := &fakeAssistant{err: utils.NewAppError("repo.assistant", utils.KindExhaustedRetries, "no endpoint candidate answered", nil)}
	h := newTestHandler(t, assistant, &fakePredictor{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"hello"}`))
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var payload errorPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Kind != string(utils.KindExhaustedRetries) {
		t.Fatalf("kind = %q", payload.Error.Kind)
	}
	if !strings.Contains(payload.Error.Message, "try again") {
		t.Fatalf("message should be user facing, got %q", payload.Error.Message)
	}
}

func TestPredictEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeAssistant{}, &fakePredictor{loss: 74.2, severity: models.PredictionSeverityCritical})

	body := `{"attack_type":"Ransomware","target_industry":"Banking","affected_users":2000000,"data_breach_gb":1500}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp predictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PredictionID == "" {
		t.Fatal("missing prediction id")
	}
	if resp.LossMillions != 74.2 {
		t.Fatalf("loss = %v", resp.LossMillions)
	}
	if resp.Risk != string(models.RiskHigh) {
		t.Fatalf("risk = %q", resp.Risk)
	}
	if resp.Derived.SeverityTier != string(models.TierCritical) {
		t.Fatalf("derived tier = %q", resp.Derived.SeverityTier)
	}
	if resp.ConfidenceLowM >= resp.ConfidenceHighM {
		t.Fatalf("band inverted: [%v, %v]", resp.ConfidenceLowM, resp.ConfidenceHighM)
	}
}

func TestPredictRejectsUnknownAttack(t *testing.T) {
	h := newTestHandler(t, &fakeAssistant{}, &fakePredictor{loss: 1, severity: models.PredictionSeverityLow})

	body := `{"attack_type":"Quantum","target_industry":"Banking","affected_users":10,"data_breach_gb":1}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestReferenceEndpoints(t *testing.T) {
	h := newTestHandler(t, &fakeAssistant{}, &fakePredictor{})
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reference", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list referenceListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Articles) == 0 || len(list.Categories) == 0 {
		t.Fatalf("empty library: %d articles, %d categories", len(list.Articles), len(list.Categories))
	}

	slug := list.Articles[0].Slug
	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reference/"+slug, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("article status = %d", rec.Code)
	}
	var article content.Article
	if err := json.Unmarshal(rec.Body.Bytes(), &article); err != nil {
		t.Fatalf("decode article: %v", err)
	}
	if article.Slug != slug {
		t.Fatalf("slug = %q, want %q", article.Slug, slug)
	}

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reference/no-such-topic", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing article status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &fakeAssistant{}, &fakePredictor{})
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSessionCookieReused(t *testing.T) {
	h := newTestHandler(t, &fakeAssistant{reply: models.ChatReply{Response: "ok"}}, &fakePredictor{})
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"a"}`)))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected initial cookie")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"query":"b"}`))
	req.AddCookie(cookies[0])
	routes.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			t.Fatalf("unexpected replacement cookie %q", c.Value)
		}
	}
}
