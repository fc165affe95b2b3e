package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imj25/digital-shield/internal/advice"
	"github.com/imj25/digital-shield/internal/features"
	"github.com/imj25/digital-shield/internal/metrics"
	"github.com/imj25/digital-shield/internal/models"
	"github.com/imj25/digital-shield/internal/repo"
	"github.com/imj25/digital-shield/internal/session"
	"github.com/imj25/digital-shield/internal/utils"
)

// AssistantAPI is the slice of the assistant client the service needs.
type AssistantAPI interface {
	Query(ctx context.Context, paths repo.PathCache, text string) (models.ChatReply, error)
}

// PredictorAPI is the slice of the prediction client the service needs.
type PredictorAPI interface {
	Predict(ctx context.Context, obs models.IncidentObservation) (models.LossPrediction, error)
}

// DashboardService orchestrates the chat and prediction flows behind the
// HTTP handlers.
type DashboardService struct {
	logger    *slog.Logger
	assistant AssistantAPI
	predictor PredictorAPI
	sessions  *session.Store
	advisor   *advice.Advisor
	latencies *utils.LatencyTracker
}

// NewDashboardService constructs the dashboard facade.
func NewDashboardService(logger *slog.Logger, assistant AssistantAPI, predictor PredictorAPI, sessions *session.Store, advisor *advice.Advisor) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		logger:    logger,
		assistant: assistant,
		predictor: predictor,
		sessions:  sessions,
		advisor:   advisor,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Sessions exposes the session store for the HTTP layer.
func (s *DashboardService) Sessions() *session.Store {
	return s.sessions
}

// stickyPathCache adapts a session to repo.PathCache, mirroring successful
// discoveries into the shared store and counting path switches.
type stickyPathCache struct {
	ctx   context.Context
	store *session.Store
	sess  *session.Session
}

func (c *stickyPathCache) ResolvedPath() string {
	return c.sess.ResolvedPath()
}

func (c *stickyPathCache) SetResolvedPath(path string) {
	if previous := c.sess.ResolvedPath(); previous != "" && previous != path {
		metrics.ObserveEndpointSwitch()
	}
	c.store.RememberResolvedPath(c.ctx, c.sess, path)
}

// Chat forwards one user question to the assistant and appends both sides of
// the exchange to the session transcript.
func (s *DashboardService) Chat(ctx context.Context, sess *session.Session, text string) (models.ChatReply, error) {
	if s.assistant == nil {
		return models.ChatReply{}, utils.NewAppError("dashboard.chat", utils.KindInvalidInput, "assistant not configured", nil)
	}

	start := time.Now()
	reply, err := s.assistant.Query(ctx, &stickyPathCache{ctx: ctx, store: s.sessions, sess: sess}, text)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveChat(duration, reply.Attempts, metrics.OutcomeError)
		s.logger.Error("chat request failed",
			slog.String("session_id", sess.ID), slog.Any("error", err))
		return models.ChatReply{}, err
	}

	metrics.ObserveChat(duration, reply.Attempts, metrics.OutcomeSuccess)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("chat latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}

	sess.Append("user", text)
	sess.Append("assistant", reply.Response)
	return reply, nil
}

// Predict validates the observation, fabricates the unobserved model
// features, calls the prediction backend, and assembles the full report.
func (s *DashboardService) Predict(ctx context.Context, obs models.IncidentObservation) (models.PredictionReport, error) {
	const op = "dashboard.predict"

	if s.predictor == nil {
		return models.PredictionReport{}, utils.NewAppError(op, utils.KindInvalidInput, "predictor not configured", nil)
	}
	if !models.KnownAttackType(obs.AttackType) {
		return models.PredictionReport{}, utils.NewAppError(op, utils.KindInvalidInput, "unknown attack type", nil)
	}
	if !models.KnownTargetIndustry(obs.TargetIndustry) {
		return models.PredictionReport{}, utils.NewAppError(op, utils.KindInvalidInput, "unknown target industry", nil)
	}
	if obs.AffectedUsers < 1 {
		return models.PredictionReport{}, utils.NewAppError(op, utils.KindInvalidInput, "affected users must be at least 1", nil)
	}
	if obs.DataBreachGB < 0 {
		return models.PredictionReport{}, utils.NewAppError(op, utils.KindInvalidInput, "data breach size cannot be negative", nil)
	}

	derived := features.ResolveDefaults(obs)

	start := time.Now()
	prediction, err := s.predictor.Predict(ctx, obs)
	duration := time.Since(start)
	if err != nil {
		metrics.ObservePrediction(duration, metrics.OutcomeError)
		s.logger.Error("prediction request failed", slog.Any("error", err))
		return models.PredictionReport{}, err
	}
	metrics.ObservePrediction(duration, metrics.OutcomeSuccess)

	report := models.PredictionReport{
		PredictionID:    uuid.NewString(),
		Observation:     obs,
		Derived:         derived,
		PredictedLossM:  prediction.PredictedLossM,
		Severity:        prediction.Severity,
		Risk:            models.RiskLabelForLoss(prediction.PredictedLossM),
		Confidence:      models.BandForLoss(prediction.PredictedLossM),
		Recommendations: s.advisor.Recommend(obs, derived, prediction.PredictedLossM),
		CreatedAt:       time.Now().UTC(),
	}

	s.logger.Debug("prediction complete",
		slog.String("prediction_id", report.PredictionID),
		slog.Float64("loss_millions", report.PredictedLossM),
		slog.String("severity", string(report.Severity)))
	return report, nil
}

// LatencyP95 returns the current p95 chat latency.
func (s *DashboardService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}
