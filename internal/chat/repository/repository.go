package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang-market-chat/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrQuoteNotFound is returned when a provider has no data for a symbol.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrCacheMiss is returned when a cache tier holds no entry for a key.
	ErrCacheMiss = errors.New("cache miss")
	// ErrUnauthorized is returned when a bearer token is rejected by the auth provider.
	ErrUnauthorized = errors.New("unauthorized")
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

func newRequestLimiter(maxRequestPerMinute int) *rate.Limiter {
	if maxRequestPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxRequestPerMinute)), 1)
}

// getJSON performs a rate-limited GET and decodes a JSON body into out.
func getJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, log *logger.Logger, url string, headers map[string]string, out interface{}) error {
	fields := []zap.Field{
		zap.String("url", redactURL(url)),
	}

	if err := limiter.Wait(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to wait for request limit", append(fields, zap.Error(err))...)
		return fmt.Errorf("failed to wait for request limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrQuoteNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.DebugContext(ctx, "Upstream returned non-success status", append(fields, zap.Int("status", resp.StatusCode))...)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
