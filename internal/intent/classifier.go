package intent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	commonhttp "agri-advisor/internal/common/http"
	"agri-advisor/internal/common/logger"
)

var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrClassifierTimeout     = errors.New("classifier timed out")
	ErrClassifierResponse    = errors.New("classifier response unusable")
)

const cacheKeyPrefix = "intent:"

// ClassifierConfig configures the remote classifier client.
type ClassifierConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

// RemoteClassifier calls the classification service. Results are cached in
// Redis when a cache is configured; cache errors never fail a call.
type RemoteClassifier struct {
	config *ClassifierConfig
	client *commonhttp.Client
	cache  redis.Cmdable
	logger logger.Logger
}

func NewRemoteClassifier(config *ClassifierConfig, client *commonhttp.Client, cache redis.Cmdable, log logger.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		config: config,
		client: client,
		cache:  cache,
		logger: log.With(map[string]interface{}{"component": "intent-classifier"}),
	}
}

type classifyRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

type classifyResponse struct {
	Success        bool            `json:"success"`
	Classification *Classification `json:"classification"`
	Error          string          `json:"error,omitempty"`
}

// Classify returns the classification for message, retrying transport
// failures and non-200 responses with exponential backoff.
func (c *RemoteClassifier) Classify(ctx context.Context, message, language string) (*Classification, error) {
	if c.config.BaseURL == "" {
		return nil, fmt.Errorf("%w: no classifier url configured", ErrClassifierUnavailable)
	}

	key := cacheKey(language, message)
	if cached, ok := c.fromCache(ctx, key); ok {
		return cached, nil
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/tools/classify_intent"
	req := classifyRequest{Message: message, Language: language}

	var (
		status  int
		body    []byte
		lastErr error
	)
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrClassifierTimeout
			}
		}

		status, body, lastErr = c.client.PostJSON(ctx, url, req, nil)
		if ctx.Err() != nil {
			return nil, ErrClassifierTimeout
		}
		if lastErr == nil && status == http.StatusOK {
			break
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("status %d", status)
		}
		c.logger.Debug("classifier attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, lastErr)
	}

	var resp classifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrClassifierResponse, err)
	}
	if !resp.Success || resp.Classification == nil {
		return nil, fmt.Errorf("%w: success=%t %s", ErrClassifierResponse, resp.Success, resp.Error)
	}

	c.toCache(ctx, key, resp.Classification)
	return resp.Classification, nil
}

func cacheKey(language, message string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(language) + "|" + message))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RemoteClassifier) fromCache(ctx context.Context, key string) (*Classification, bool) {
	if c.cache == nil || c.config.CacheTTL <= 0 {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("classification cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var cl Classification
	if err := json.Unmarshal(raw, &cl); err != nil {
		return nil, false
	}
	return &cl, true
}

func (c *RemoteClassifier) toCache(ctx context.Context, key string, cl *Classification) {
	if c.cache == nil || c.config.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(cl)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.config.CacheTTL).Err(); err != nil {
		c.logger.Warn("classification cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
