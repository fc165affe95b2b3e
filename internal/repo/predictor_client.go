package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/imj25/digital-shield/internal/cache"
	"github.com/imj25/digital-shield/internal/models"
	"github.com/imj25/digital-shield/internal/utils"
)

const predictPath = "/predict_financial_loss"

// PredictorClient wraps the external financial-loss prediction API. The
// primary path sends four raw fields and lets the server do the encoding;
// responses are cached briefly since identical inputs always map to the same
// prediction.
type PredictorClient struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Provider
	cacheTTL   time.Duration
}

// NewPredictorClient constructs a client targeting the configured prediction
// service. cacheProvider may be nil.
func NewPredictorClient(baseURL string, timeout time.Duration, cacheProvider cache.Provider, cacheTTL time.Duration) *PredictorClient {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &PredictorClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheProvider,
		cacheTTL:   cacheTTL,
	}
}

type predictRequest struct {
	NumberOfAffectedUsers int64   `json:"number_of_affected_users"`
	DataBreachSizeGB      float64 `json:"data_breach_size_gb"`
	AttackType            string  `json:"attack_type"`
	TargetIndustry        string  `json:"target_industry"`
}

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
	Severity   string   `json:"severity"`
}

// Predict submits one incident observation and returns the validated loss
// prediction.
func (c *PredictorClient) Predict(ctx context.Context, obs models.IncidentObservation) (models.LossPrediction, error) {
	const op = "predictor.predict"

	if c.baseURL == "" {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindInvalidInput, "predictor base URL not configured", nil)
	}

	payload := predictRequest{
		NumberOfAffectedUsers: obs.AffectedUsers,
		DataBreachSizeGB:      obs.DataBreachGB,
		AttackType:            string(obs.AttackType),
		TargetIndustry:        string(obs.TargetIndustry),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindInvalidInput, "marshal payload", err)
	}

	cacheKey := "digital-shield:prediction:" + string(body)
	if c.cacheTTL > 0 {
		if data, cacheErr := c.cache.Get(ctx, cacheKey); cacheErr == nil {
			var cached models.LossPrediction
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindTransient, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindTransient, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindUpstreamError,
			fmt.Sprintf("predictor returned %s: %s", resp.Status, strings.TrimSpace(string(data))), nil)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindSchemaMismatch, "decode response", err)
	}
	if parsed.Prediction == nil {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindSchemaMismatch, "response missing prediction field", nil)
	}
	if math.IsNaN(*parsed.Prediction) || math.IsInf(*parsed.Prediction, 0) || *parsed.Prediction < 0 {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindSchemaMismatch,
			fmt.Sprintf("prediction value %v out of range", *parsed.Prediction), nil)
	}
	severity, ok := models.NormalisePredictionSeverity(parsed.Severity)
	if !ok {
		return models.LossPrediction{}, utils.NewAppError(op, utils.KindSchemaMismatch,
			fmt.Sprintf("unknown severity %q", parsed.Severity), nil)
	}

	prediction := models.LossPrediction{PredictedLossM: *parsed.Prediction, Severity: severity}
	if c.cacheTTL > 0 {
		if data, marshalErr := json.Marshal(prediction); marshalErr == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.cacheTTL)
		}
	}
	return prediction, nil
}
