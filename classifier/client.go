// Package classifier talks to a hosted image-classification endpoint
// (Hugging Face inference API compatible) and returns ranked labels.
package classifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL           = "https://api-inference.huggingface.co/models/"
	DefaultMaxAttempts       = 2
	DefaultTimeout           = 90 * time.Second
	DefaultLoadingWait       = 30 * time.Second
	DefaultMaxLoadingWait    = 5 * time.Minute
	DefaultRateLimitWait     = 10 * time.Second
	DefaultBackoffBase       = 2 * time.Second
	DefaultMaxTransientWaits = 5

	maxResponseBytes = 1 << 20
)

// Prediction is one ranked label with its confidence in [0,1].
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Cache abstracts key-value caching of predictions (Redis, in-memory, etc.)
type Cache interface {
	Key(kind, value string) string
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

// Config carries everything the client needs; nothing is read from the environment.
type Config struct {
	BaseURL     string        // endpoint prefix, model id is appended
	APIKey      string        // sent as a Bearer token when set
	MaxAttempts int           // normal attempts per model (default 2)
	Timeout     time.Duration // hard bound on each call (default 90s)

	LoadingWait       time.Duration // wait when the provider gives no estimate (default 30s)
	MaxLoadingWait    time.Duration // cap on a provider estimate (default 5m)
	RateLimitWait     time.Duration // fixed wait after a rate-limit signal (default 10s)
	BackoffBase       time.Duration // backoff is 2^attempt * BackoffBase (default 2s)
	MaxTransientWaits int           // loading/rate-limit waits allowed per call (default 5)

	HTTPClient *http.Client // nil = http.DefaultClient
	Cache      Cache        // optional prediction cache
	Logger     *zap.Logger  // nil = no logging
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.LoadingWait <= 0 {
		c.LoadingWait = DefaultLoadingWait
	}
	if c.MaxLoadingWait <= 0 {
		c.MaxLoadingWait = DefaultMaxLoadingWait
	}
	if c.MaxLoadingWait < c.LoadingWait {
		c.MaxLoadingWait = c.LoadingWait
	}
	if c.RateLimitWait <= 0 {
		c.RateLimitWait = DefaultRateLimitWait
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.MaxTransientWaits <= 0 {
		c.MaxTransientWaits = DefaultMaxTransientWaits
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Client classifies raw file bytes against a named model.
type Client struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Client with zero config fields replaced by defaults.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg, sleep: sleepContext}
}

// Classify returns the model's labels ranked by descending confidence.
func (c *Client) Classify(ctx context.Context, model string, data []byte) ([]Prediction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	var cacheKey string
	if c.cfg.Cache != nil {
		sum := sha256.Sum256(data)
		cacheKey = c.cfg.Cache.Key("cls", model+":"+hex.EncodeToString(sum[:]))
		var cached []Prediction
		if c.cfg.Cache.Get(ctx, cacheKey, &cached) && len(cached) > 0 {
			c.cfg.Logger.Debug("classifier cache hit", zap.String("model", model))
			return cached, nil
		}
	}

	preds, err := c.classifyWithRetry(ctx, model, data)
	if err != nil {
		return nil, err
	}
	if c.cfg.Cache != nil && len(preds) > 0 {
		c.cfg.Cache.Set(ctx, cacheKey, preds)
	}
	return preds, nil
}

func (c *Client) classifyWithRetry(ctx context.Context, model string, data []byte) ([]Prediction, error) {
	endpoint := c.cfg.BaseURL + model
	log := c.cfg.Logger.With(zap.String("model", model))

	var lastErr error
	waits := 0
	for attempt := 1; attempt <= c.cfg.MaxAttempts; {
		log.Debug("calling classifier", zap.Int("attempt", attempt), zap.Int("max_attempts", c.cfg.MaxAttempts))
		preds, err := c.call(ctx, endpoint, data)
		if err == nil {
			return preds, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Loading() || apiErr.RateLimited()) {
			if waits >= c.cfg.MaxTransientWaits {
				return nil, fmt.Errorf("classifier %s: gave up after %d waits: %w", model, waits, err)
			}
			waits++
			wait := c.cfg.RateLimitWait
			if apiErr.Loading() {
				wait = c.loadingWait(apiErr.EstimatedTime)
			}
			log.Info("classifier not ready, waiting", zap.String("reason", apiErr.Message), zap.Duration("wait", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if !retryable(err) {
			log.Warn("classifier failed permanently", zap.Error(err))
			return nil, fmt.Errorf("classifier %s: %w", model, err)
		}

		log.Warn("classifier attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == c.cfg.MaxAttempts {
			break
		}
		backoff := time.Duration(1<<attempt) * c.cfg.BackoffBase
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		attempt++
	}
	return nil, fmt.Errorf("classifier %s: %d attempts failed: %w", model, c.cfg.MaxAttempts, lastErr)
}

// loadingWait turns the provider's estimate in seconds into a wait. Missing
// or unusable estimates fall back to LoadingWait; large ones are capped.
func (c *Client) loadingWait(estimate float64) time.Duration {
	if math.IsNaN(estimate) || math.IsInf(estimate, 0) || estimate <= 0 {
		return c.cfg.LoadingWait
	}
	if estimate >= c.cfg.MaxLoadingWait.Seconds() {
		return c.cfg.MaxLoadingWait
	}
	return time.Duration(estimate * float64(time.Second))
}

// call performs one bounded POST of data to endpoint.
func (c *Client) call(ctx context.Context, endpoint string, data []byte) ([]Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(resp.StatusCode, body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
