// ABOUTME: HTTP tool executor backing the probe's ToolCall handling
// ABOUTME: Invokes catalog handlers with their configured method, timeout, and retry budget

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AltairaLabs/omnia-runtime/internal/tools"
)

const (
	// defaultCallTimeout applies when a handler does not set its own.
	defaultCallTimeout = 30 * time.Second

	// maxResultBytes caps how much of a response body becomes a tool result.
	maxResultBytes = 1 << 20
)

// Executor invokes catalog handlers over HTTP.
type Executor struct {
	catalog *tools.Catalog
	client  *http.Client
	logger  *slog.Logger
}

func NewExecutor(catalog *tools.Catalog, logger *slog.Logger) *Executor {
	return &Executor{
		catalog: catalog,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Execute runs one tool call against its catalog handler and returns the
// response body as the result. Transport failures and 5xx responses are
// retried up to the handler's retry budget.
func (e *Executor) Execute(ctx context.Context, name, arguments string) (string, error) {
	handler, ok := e.catalog.Handler(name)
	if !ok {
		return "", fmt.Errorf("tool %q is not in the catalog", name)
	}

	timeout := handler.TimeoutDuration
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	if arguments == "" {
		arguments = "{}"
	}

	attempts := handler.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			e.logger.Warn("retrying tool call",
				"tool", name,
				"attempt", attempt+1,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}

		result, retryable, err := e.attempt(ctx, handler, arguments, timeout)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return "", lastErr
}

// attempt performs a single HTTP invocation. retryable reports whether a
// further attempt could change the outcome.
func (e *Executor) attempt(ctx context.Context, handler tools.Handler, arguments string, timeout time.Duration) (result string, retryable bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := http.MethodPost
	contentType := "application/json"
	if handler.HTTP != nil {
		if handler.HTTP.Method != "" {
			method = handler.HTTP.Method
		}
		if handler.HTTP.ContentType != "" {
			contentType = handler.HTTP.ContentType
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, handler.Endpoint, strings.NewReader(arguments))
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if handler.HTTP != nil {
		for k, v := range handler.HTTP.Headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("calling %s: %w", handler.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return "", true, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode >= 500,
			fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return string(body), false, nil
}
