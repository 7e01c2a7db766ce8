package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// ErrIdentityNotConfigured is returned when no identity endpoint is configured.
var ErrIdentityNotConfigured = errors.New("identity resolution endpoint not configured")

// IdentityClientConfig configures the external identity lookup.
type IdentityClientConfig struct {
	ResolveURL string
	APIKey     string
	Timeout    time.Duration
}

// IdentityClient resolves a student's LMS identifier from their email through an external endpoint.
type IdentityClient struct {
	client  *http.Client
	config  IdentityClientConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewIdentityClient constructs the client.
func NewIdentityClient(config IdentityClientConfig, metrics *MetricsService, logger *zap.Logger) *IdentityClient {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityClient{
		client:  &http.Client{Timeout: config.Timeout},
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

type identityRequest struct {
	Email string `json:"email"`
}

type identityResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	User    struct {
		ID models.ID `json:"id"`
	} `json:"user"`
}

// ResolveLMSStudentID looks up the LMS identifier registered for email.
func (c *IdentityClient) ResolveLMSStudentID(ctx context.Context, email string) (models.ID, error) {
	if strings.TrimSpace(c.config.ResolveURL) == "" {
		return "", ErrIdentityNotConfigured
	}

	body, err := json.Marshal(identityRequest{Email: email})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ResolveURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveHTTPRequest(http.MethodPost, "identity_resolve", http.StatusServiceUnavailable, time.Since(start))
		return "", fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveHTTPRequest(http.MethodPost, "identity_resolve", resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read identity response: %w", err)
	}
	var payload identityResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil && resp.StatusCode < http.StatusMultipleChoices {
			return "", fmt.Errorf("decode identity response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusMultipleChoices || !payload.Success {
		message := payload.Message
		if message == "" {
			message = payload.Error
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("identity lookup failed (status %d): %s", resp.StatusCode, message)
	}
	if payload.User.ID.Empty() {
		return "", errors.New("identity lookup returned no user id")
	}

	c.logger.Debug("resolved lms student id", zap.String("lms_student_id", payload.User.ID.String()))
	return payload.User.ID, nil
}
