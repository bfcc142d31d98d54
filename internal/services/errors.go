package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrResolution     = errors.New("resolution failed")
	ErrFetchTransient = errors.New("fetch failed (transient)")
	ErrFetchPermanent = errors.New("fetch failed")
	ErrTranscode      = errors.New("transcode failed")
	ErrTooLarge       = errors.New("file exceeds delivery limit")
	ErrDelivery       = errors.New("delivery failed")
	ErrPersistence    = errors.New("persistence failure")
	ErrBusy           = errors.New("user has an active download")
	ErrChatGone       = errors.New("chat unavailable")
	ErrExternalTool   = errors.New("external tool error")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrNotFound       = errors.New("not found")
	ErrTimeout        = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFetchTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the pipeline may re-attempt the failed operation.
// Only transient fetch failures and plain timeouts qualify; everything else is
// terminal for the item it occurred on.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFetchPermanent) {
		return false
	}
	return errors.Is(err, ErrFetchTransient) || errors.Is(err, ErrTimeout)
}

// Detail returns the human-readable portion of a wrapped error with the
// leading sentinel text removed, suitable for relaying to a chat user.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrResolution, ErrFetchTransient, ErrFetchPermanent, ErrTranscode,
		ErrTooLarge, ErrDelivery, ErrPersistence, ErrBusy, ErrChatGone,
		ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
