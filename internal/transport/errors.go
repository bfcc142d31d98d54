package transport

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"telefetch/internal/services"
)

// APIError is a non-OK reply from the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram %s failed: %d %s (retry after %ds)", e.Method, e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram %s failed: %d %s", e.Method, e.Code, e.Description)
}

// Descriptions Telegram uses when the destination can no longer receive
// messages. These arrive with code 400 or 403 depending on the cause.
var chatGonePhrases = []string{
	"bot was blocked by the user",
	"user is deactivated",
	"chat not found",
	"bot was kicked",
}

func apiErrorFrom(method string, envelope apiResponse) error {
	apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	if envelope.Parameters != nil {
		apiErr.RetryAfter = envelope.Parameters.RetryAfter
	}
	description := strings.ToLower(envelope.Description)
	for _, phrase := range chatGonePhrases {
		if strings.Contains(description, phrase) {
			return fmt.Errorf("%w: %w", services.ErrChatGone, apiErr)
		}
	}
	if envelope.ErrorCode == 403 {
		return fmt.Errorf("%w: %w", services.ErrChatGone, apiErr)
	}
	return apiErr
}

// Retryable reports whether a failed call is worth one more attempt. Gone
// chats never are; rate limits, server errors, and transport-level failures
// are.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, services.ErrChatGone) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryAfter extracts the pause Telegram asked for, zero when absent.
func RetryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}
