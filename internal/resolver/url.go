package resolver

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IsSupported reports whether the URL points at a source this resolver can
// handle. The bot uses it to ignore chat messages that are not video links.
func IsSupported(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return false
	}
	return supportedHost(parsed.Host)
}

func supportedHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	switch host {
	case "youtube.com", "youtu.be", "music.youtube.com":
		return true
	}
	return false
}

// normalizeURL validates the submitted URL and rewrites music hosts to the
// plain watch host, which resolves the same streams without the music
// frontend's metadata quirks.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: missing scheme or host", ErrUnsupportedURL)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, parsed.Scheme)
	}
	if !supportedHost(parsed.Host) {
		return "", fmt.Errorf("%w: host %q", ErrUnsupportedURL, parsed.Host)
	}
	if strings.EqualFold(parsed.Host, "music.youtube.com") {
		parsed.Host = "www.youtube.com"
		query := parsed.Query()
		delete(query, "si")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

// looksLikePlaylist reports whether the URL names a playlist rather than a
// single video. A watch link carrying a list parameter counts: submitting one
// downloads the whole playlist.
func looksLikePlaylist(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Query().Get("list") != "" {
		return true
	}
	return strings.HasPrefix(parsed.Path, "/playlist")
}

func watchURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}

// titleFromURL derives a presentable title from the URL when the source
// reports none, so status messages and captions never show an empty name.
func titleFromURL(raw string) string {
	base := raw
	if parsed, err := url.Parse(raw); err == nil {
		if id := parsed.Query().Get("v"); id != "" {
			base = id
		} else if trimmed := strings.Trim(parsed.Path, "/"); trimmed != "" {
			parts := strings.Split(trimmed, "/")
			base = parts[len(parts)-1]
		} else if parsed.Host != "" {
			base = parsed.Host
		}
	}

	var cleaned strings.Builder
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		title = "Untitled Video"
	}
	return cases.Title(language.Und).String(title)
}
