package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Sentinel markers carried by classified resolution failures. Callers test
// with errors.Is to pick the right user-facing message.
var (
	ErrUnsupportedURL = errors.New("unsupported url")
	ErrRestricted     = errors.New("restricted content")
	ErrSignInRequired = errors.New("sign-in required")
	ErrUnavailable    = errors.New("source unavailable")
)

// Phrases the source embeds in errors when it wants a signed-in session.
var signInPhrases = []string{
	"sign in",
	"use --cookies",
	"confirm you're not a bot",
	"login required",
}

// IsSignInRequired reports whether the failure indicates the source demands
// authentication cookies. The bot uses this to tell the user cookies are
// missing and to alert the owner.
func IsSignInRequired(err error) bool {
	return errors.Is(err, ErrSignInRequired)
}

func isSignInError(err error) bool {
	if errors.Is(err, youtube.ErrLoginRequired) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range signInPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// Classify tags a raw source error with the sentinel that describes it. The
// fetch client reuses it so download-time failures carry the same taxonomy
// as resolution-time ones.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if isSignInError(err) {
		return fmt.Errorf("%w: %w", ErrSignInRequired, err)
	}
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("%w: %w", ErrRestricted, err)
	case errors.Is(err, youtube.ErrInvalidPlaylist),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}
	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %w", ErrRestricted, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
