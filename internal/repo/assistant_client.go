package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/imj25/digital-shield/internal/models"
	"github.com/imj25/digital-shield/internal/utils"
)

// fallbackChatPaths are the hardcoded alternates probed when the configured
// primary path is wrong. Deployments of the assistant service have drifted
// between these mounts.
var fallbackChatPaths = []string{
	"/api/v1/rag/query",
	"/api/v1/query",
	"/rag/query",
	"/query",
}

// PathCache exposes the session-scoped sticky path: the first candidate that
// succeeded is tried first on subsequent calls.
type PathCache interface {
	ResolvedPath() string
	SetResolvedPath(path string)
}

// AssistantClient delivers chat queries to the RAG assistant service despite
// uncertain endpoint paths and transient failures, with bounded retries and
// linear backoff between rounds.
type AssistantClient struct {
	baseURL     string
	primaryPath string
	maxAttempts int
	backoff     time.Duration
	httpClient  *http.Client
	logger      *slog.Logger

	// sleep is ctx-aware and replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAssistantClient constructs a client targeting the configured assistant
// service.
func NewAssistantClient(baseURL, primaryPath string, maxAttempts int, timeout, backoff time.Duration, logger *slog.Logger) *AssistantClient {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistantClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		primaryPath: primaryPath,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		sleep:       sleepCtx,
	}
}

type assistantResponse struct {
	Response         string   `json:"response"`
	SuggestedQueries []string `json:"suggested_queries"`
}

// Query posts the user's question to the first endpoint candidate that
// answers. Candidates are tried in order for up to maxAttempts rounds; a
// 404/405 means "wrong path" and moves straight to the next candidate, any
// other failure is recorded and retried. The first success caches its path on
// the session and returns immediately.
func (c *AssistantClient) Query(ctx context.Context, paths PathCache, text string) (models.ChatReply, error) {
	const op = "assistant.query"

	if c.baseURL == "" {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindInvalidInput, "assistant base URL not configured", nil)
	}
	if strings.TrimSpace(text) == "" {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindInvalidInput, "query text is empty", nil)
	}

	candidates := c.candidatePaths(paths)
	body, err := json.Marshal(map[string]string{"query": text})
	if err != nil {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindInvalidInput, "marshal query", err)
	}

	start := time.Now()
	attempts := 0
	var lastErr error

	for round := 1; round <= c.maxAttempts; round++ {
		for _, candidate := range candidates {
			attempts++
			reply, attemptErr := c.tryPath(ctx, candidate, body)
			if attemptErr == nil {
				paths.SetResolvedPath(candidate)
				reply.ResolvedPath = candidate
				reply.Attempts = attempts
				reply.Elapsed = time.Since(start)
				return reply, nil
			}
			if utils.IsKind(attemptErr, utils.KindPathNotFound) {
				// Wrong mount point, not a service failure.
				c.logger.Debug("assistant path rejected", slog.String("path", candidate))
				continue
			}
			lastErr = attemptErr
			c.logger.Warn("assistant call failed",
				slog.String("path", candidate), slog.Int("round", round), slog.Any("error", attemptErr))
		}

		if round < c.maxAttempts {
			if err := c.sleep(ctx, c.backoff*time.Duration(round)); err != nil {
				return models.ChatReply{}, utils.NewAppError(op, utils.KindTransient, "backoff interrupted", err)
			}
		}
	}

	if lastErr == nil {
		lastErr = utils.NewAppError(op, utils.KindPathNotFound, "no endpoint candidate accepted the request", nil)
	}
	return models.ChatReply{}, utils.NewAppError(op, utils.KindExhaustedRetries, "assistant service unavailable", lastErr)
}

// candidatePaths builds the ordered, deduplicated candidate list:
// [cached resolved path] ++ [configured primary] ++ hardcoded fallbacks.
func (c *AssistantClient) candidatePaths(paths PathCache) []string {
	raw := make([]string, 0, 2+len(fallbackChatPaths))
	if cached := paths.ResolvedPath(); cached != "" {
		raw = append(raw, cached)
	}
	if c.primaryPath != "" {
		raw = append(raw, c.primaryPath)
	}
	raw = append(raw, fallbackChatPaths...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		normalised := "/" + strings.TrimLeft(p, "/")
		if _, dup := seen[normalised]; dup {
			continue
		}
		seen[normalised] = struct{}{}
		out = append(out, normalised)
	}
	return out
}

func (c *AssistantClient) tryPath(ctx context.Context, candidate string, body []byte) (models.ChatReply, error) {
	const op = "assistant.query"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(candidate), bytes.NewReader(body))
	if err != nil {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindTransient, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindTransient, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed:
		return models.ChatReply{}, utils.NewAppError(op, utils.KindPathNotFound,
			fmt.Sprintf("path %s returned %s", candidate, resp.Status), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return models.ChatReply{}, utils.NewAppError(op, utils.KindUpstreamError,
			fmt.Sprintf("assistant returned %s: %s", resp.Status, strings.TrimSpace(string(data))), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindTransient, "read response", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		// An empty 2xx body still counts as success.
		return models.ChatReply{}, nil
	}

	var parsed assistantResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return models.ChatReply{}, utils.NewAppError(op, utils.KindSchemaMismatch, "assistant response is not valid JSON", err)
	}
	return models.ChatReply{
		Response:         parsed.Response,
		SuggestedQueries: parsed.SuggestedQueries,
	}, nil
}

func (c *AssistantClient) resolveURL(p string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + p
	}
	u.Path = path.Join(u.Path, p)
	return u.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
