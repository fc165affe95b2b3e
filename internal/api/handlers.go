package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/imj25/digital-shield/internal/content"
	"github.com/imj25/digital-shield/internal/models"
	"github.com/imj25/digital-shield/internal/services"
	"github.com/imj25/digital-shield/internal/session"
	"github.com/imj25/digital-shield/internal/utils"
)

const sessionCookie = "ds_session"

// Handler exposes the dashboard JSON API.
type Handler struct {
	logger  *slog.Logger
	svc     *services.DashboardService
	library *content.Library
}

// NewHandler constructs the API handler.
func NewHandler(logger *slog.Logger, svc *services.DashboardService, library *content.Library) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, svc: svc, library: library}
}

// Routes builds the full route table with request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /api/v1/chat", h.handleChat)
	mux.HandleFunc("POST /api/v1/predict", h.handlePredict)
	mux.HandleFunc("GET /api/v1/reference", h.handleReferenceList)
	mux.HandleFunc("GET /api/v1/reference/{slug}", h.handleReferenceArticle)
	return logRequests(h.logger, mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response         string   `json:"response"`
	SuggestedQueries []string `json:"suggested_queries,omitempty"`
	ResolvedPath     string   `json:"resolved_path,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := h.ensureSession(w, r)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, utils.NewAppError("api.chat", utils.KindInvalidInput, "request body must be JSON", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, utils.NewAppError("api.chat", utils.KindInvalidInput, "query must not be empty", nil))
		return
	}

	reply, err := h.svc.Chat(r.Context(), sess, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:         reply.Response,
		SuggestedQueries: reply.SuggestedQueries,
		ResolvedPath:     reply.ResolvedPath,
	})
}

type predictRequest struct {
	AttackType     string  `json:"attack_type"`
	TargetIndustry string  `json:"target_industry"`
	AffectedUsers  int64   `json:"affected_users"`
	DataBreachGB   float64 `json:"data_breach_gb"`
}

type predictResponse struct {
	PredictionID    string         `json:"prediction_id"`
	LossMillions    float64        `json:"loss_millions"`
	Severity        string         `json:"severity"`
	Risk            string         `json:"risk"`
	ConfidenceLowM  float64        `json:"confidence_low_millions"`
	ConfidenceHighM float64        `json:"confidence_high_millions"`
	Derived         derivedPayload `json:"derived"`
	Recommendations []string       `json:"recommendations,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type derivedPayload struct {
	Year                int     `json:"year"`
	ResolutionTimeHours float64 `json:"resolution_time_hours"`
	Country             string  `json:"country"`
	VulnerabilityType   string  `json:"vulnerability_type"`
	DefenseMechanism    string  `json:"defense_mechanism"`
	SeverityTier        string  `json:"severity_tier"`
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	h.ensureSession(w, r)

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, utils.NewAppError("api.predict", utils.KindInvalidInput, "request body must be JSON", err))
		return
	}

	obs := models.IncidentObservation{
		AttackType:     models.AttackType(req.AttackType),
		TargetIndustry: models.TargetIndustry(req.TargetIndustry),
		AffectedUsers:  req.AffectedUsers,
		DataBreachGB:   req.DataBreachGB,
	}
	report, err := h.svc.Predict(r.Context(), obs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		PredictionID:    report.PredictionID,
		LossMillions:    report.PredictedLossM,
		Severity:        string(report.Severity),
		Risk:            string(report.Risk),
		ConfidenceLowM:  report.Confidence.LowerM,
		ConfidenceHighM: report.Confidence.UpperM,
		Derived: derivedPayload{
			Year:                report.Derived.Year,
			ResolutionTimeHours: report.Derived.ResolutionTimeHours,
			Country:             report.Derived.Country,
			VulnerabilityType:   string(report.Derived.VulnerabilityType),
			DefenseMechanism:    string(report.Derived.DefenseMechanism),
			SeverityTier:        string(report.Derived.SeverityTier),
		},
		Recommendations: report.Recommendations,
		CreatedAt:       report.CreatedAt,
	})
}

type referenceListResponse struct {
	Categories []string          `json:"categories"`
	Articles   []content.Article `json:"articles"`
}

func (h *Handler) handleReferenceList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, referenceListResponse{
		Categories: h.library.Categories(),
		Articles:   h.library.List(),
	})
}

func (h *Handler) handleReferenceArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	article, ok := h.library.Get(slug)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: errorBody{
			Kind:    "not_found",
			Message: "no reference article for slug " + slug,
		}})
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// ensureSession binds the request to an existing session or mints a new one,
// setting the cookie in the latter case.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		id = cookie.Value
	}
	sess, created := h.svc.Sessions().Get(r.Context(), id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError maps the failure taxonomy to HTTP statuses. Terminal upstream
// failures become a generic user-facing message with the underlying error
// kept in the detail field for diagnostics.
func writeError(w http.ResponseWriter, err error) {
	var app *utils.AppError
	if !errors.As(err, &app) {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: errorBody{
			Kind:    string(utils.KindTransient),
			Message: "internal error",
			Detail:  err.Error(),
		}})
		return
	}

	status := http.StatusInternalServerError
	message := app.Msg
	detail := ""
	switch app.Kind {
	case utils.KindInvalidInput:
		status = http.StatusBadRequest
	case utils.KindExhaustedRetries:
		status = http.StatusBadGateway
		message = "service unavailable, please try again later"
		detail = app.Error()
	case utils.KindUpstreamError, utils.KindSchemaMismatch:
		status = http.StatusBadGateway
		detail = app.Error()
	case utils.KindTransient:
		status = http.StatusGatewayTimeout
		detail = app.Error()
	}

	writeJSON(w, status, errorPayload{Error: errorBody{
		Kind:    string(app.Kind),
		Message: message,
		Detail:  detail,
	}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Warn("encode response", slog.Any("error", err))
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Duration("duration", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
