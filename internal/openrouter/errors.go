package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/HerbHall/modelrelay/pkg/llm"
)

// statusError represents an HTTP error response from the gateway.
type statusError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *statusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openrouter: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("openrouter: %d: %s", e.StatusCode, e.Message)
}

// parseStatusError reads a non-2xx response body into a statusError.
// The gateway wraps failures as {"error": {"message": ..., "type": ...}};
// bodies that do not parse fall back to the HTTP status line.
func parseStatusError(resp *http.Response) *statusError {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	// Read a limited amount to avoid unbounded reads.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || json.Unmarshal(raw, &errResp) != nil {
		return &statusError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	msg := errResp.Error.Message
	if msg == "" {
		msg = resp.Status
	}
	return &statusError{
		StatusCode: resp.StatusCode,
		Type:       errResp.Error.Type,
		Message:    msg,
	}
}

// mapError translates gateway and network errors into typed llm.ProviderError
// values. Rate limits (429) and exhausted quotas (402) come out retryable;
// everything else is terminal for the call.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out or cancelled", err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return llm.NewProviderError(llm.ErrCodeTimeout, "request timed out", err)
	}

	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return llm.NewProviderError(llm.ErrCodeAuthentication, se.Message, err)
		case se.StatusCode == http.StatusPaymentRequired:
			return llm.NewProviderError(llm.ErrCodeQuotaExceeded, se.Message, err)
		case se.StatusCode == http.StatusTooManyRequests:
			return llm.NewProviderError(llm.ErrCodeRateLimit, se.Message, err)
		case se.StatusCode == http.StatusNotFound:
			return llm.NewProviderError(llm.ErrCodeModelNotFound, se.Message, err)
		case se.StatusCode == http.StatusRequestTimeout:
			return llm.NewProviderError(llm.ErrCodeTimeout, se.Message, err)
		case se.Type == "context_length_exceeded" ||
			strings.Contains(strings.ToLower(se.Message), "context length"):
			return llm.NewProviderError(llm.ErrCodeContextLength, se.Message, err)
		case strings.Contains(strings.ToLower(se.Message), "not a valid model"):
			return llm.NewProviderError(llm.ErrCodeModelNotFound, se.Message, err)
		case se.StatusCode >= 500:
			return llm.NewProviderError(llm.ErrCodeServerError, se.Message, err)
		case se.StatusCode >= 400:
			return llm.NewProviderError(llm.ErrCodeInvalidRequest, se.Message, err)
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp") {
		return llm.NewProviderError(llm.ErrCodeServerError, "gateway unreachable", err)
	}

	return llm.NewProviderError(llm.ErrCodeServerError, "gateway error", err)
}
