// Package remote calls the hosted generation endpoint. Transport failures
// and 5xx responses are retried with a linearly growing delay; malformed
// response bodies are not, since repeating a bad payload won't fix it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"finquery-engine/internal/common/config"
	stderrors "finquery-engine/internal/common/errors"
	"finquery-engine/internal/common/logger"
	"finquery-engine/internal/common/metrics"
)

const responseSchema = `{
	"type": "object",
	"properties": {
		"response": {"type": "string", "minLength": 1}
	},
	"required": ["response"]
}`

// GenerateRequest is the wire request to the generation endpoint.
type GenerateRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// GenerateResponse is the expected wire response.
type GenerateResponse struct {
	Response string `json:"response"`
}

// Client calls the remote generation endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	logger     logger.Logger
	schema     *gojsonschema.Schema
}

func NewClient(cfg config.RemoteConfig, log logger.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelay) * time.Millisecond,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond},
		logger:     log,
		schema:     schema,
	}, nil
}

// Generate asks the endpoint to answer the question. Retriable failures are
// retried up to the configured budget with a linearly increasing delay;
// validation failures fail the call immediately.
func (c *Client) Generate(ctx context.Context, question, userID string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.RemoteRetries.Inc()
			delay := time.Duration(attempt) * c.retryDelay
			c.logger.Warn("retrying remote generation", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
				"user_id": userID,
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", stderrors.NewRemoteUnavailableError(ctx.Err())
			}
		}

		answer, err := c.generateOnce(ctx, question, userID)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		if stdErr, ok := err.(*stderrors.StandardError); ok && !stdErr.Retryable {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, question, userID string) (string, error) {
	payload, err := json.Marshal(GenerateRequest{Message: question, UserID: userID})
	if err != nil {
		return "", stderrors.NewRemoteBadResponseError(fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return "", stderrors.NewRemoteUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", stderrors.NewRemoteUnavailableError(ctx.Err())
		}
		return "", stderrors.NewRemoteUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", stderrors.NewRemoteUnavailableError(err)
	}

	switch {
	case resp.StatusCode >= 500:
		return "", stderrors.NewRemoteUnavailableError(fmt.Errorf("endpoint returned %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		// Client-side errors won't improve on retry.
		return "", stderrors.NewRemoteBadResponseError(fmt.Sprintf("endpoint returned %d", resp.StatusCode))
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return "", stderrors.NewRemoteBadResponseError(fmt.Sprintf("response is not valid JSON: %v", err))
	}
	if !result.Valid() {
		return "", stderrors.NewRemoteBadResponseError(fmt.Sprintf("response failed validation: %v", result.Errors()))
	}

	var decoded GenerateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", stderrors.NewRemoteBadResponseError(fmt.Sprintf("decode response: %v", err))
	}
	return decoded.Response, nil
}
