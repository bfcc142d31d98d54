package fetch

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/kkdai/youtube/v2"

	"telefetch/internal/resolver"
)

// Transient reports whether a classified fetch failure is worth retrying.
// Context cancellation and content restrictions are terminal; rate limits,
// server errors, and interrupted streams are not.
func Transient(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	case resolver.IsSignInRequired(err),
		errors.Is(err, resolver.ErrRestricted),
		errors.Is(err, resolver.ErrUnsupportedURL):
		return false
	}

	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		code := int(status)
		return code == http.StatusTooManyRequests || code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, resolver.ErrUnavailable) || errors.Is(err, io.ErrUnexpectedEOF)
}
