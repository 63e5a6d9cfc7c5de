package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
)

// ErrNoModels is returned when the server has no models installed.
var ErrNoModels = errors.New("no Ollama models installed")

// IsRetryableError returns true if the error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	errStr := err.Error()

	// Connection errors are retryable
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "no such host") {
		return true
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	var statusErrPtr *api.StatusError
	if errors.As(err, &statusErrPtr) {
		return retryableStatus(statusErrPtr.StatusCode)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsModelNotFoundError checks if the error indicates a missing model.
func IsModelNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()

	if strings.Contains(errStr, "is not installed") ||
		(strings.Contains(errStr, "model") && strings.Contains(errStr, "not found")) {
		return true
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
		return true
	}
	var statusErrPtr *api.StatusError
	return errors.As(err, &statusErrPtr) && statusErrPtr.StatusCode == 404
}

// wrapOllamaError wraps Ollama errors with user-friendly messages.
func wrapOllamaError(err error, model string) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") {
		return fmt.Errorf(`Ollama server is not running.

To fix this:
  1. Start Ollama: ollama serve
  2. Or check if it's running: ollama list

Original error: %w`, err)
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return fmt.Errorf(`Ollama request timed out.

Possible causes:
  • Model is loading into memory (first request is slow)
  • Model is too large for available RAM/VRAM
  • Server is overloaded

Try again or use a smaller model.

Original error: %w`, err)
	}

	if model != "" && IsModelNotFoundError(err) {
		return fmt.Errorf(`Model '%s' is not installed.

To fix this:
  1. Pull the model: ollama pull %s
  2. Or list available models: ollama list

Original error: %w`, model, model, err)
	}

	return err
}
