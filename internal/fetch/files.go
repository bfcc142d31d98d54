package fetch

import "strings"

const maxFileNameRunes = 120

// sanitizeFileName turns a video title into a filesystem- and upload-safe
// name. The delivered attachment keeps this name, so it should still look
// like the title.
func sanitizeFileName(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`\/:*?"<>|`, r):
			return -1
		case r < 0x20:
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	runes := []rune(cleaned)
	if len(runes) > maxFileNameRunes {
		cleaned = strings.TrimSpace(string(runes[:maxFileNameRunes]))
	}
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "video"
	}
	return cleaned
}

// containerToken extracts the container family from a MIME type, used to
// match audio streams to the chosen video stream and pick the output
// extension.
func containerToken(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.Contains(mimeType, "webm"):
		return "webm"
	case strings.Contains(mimeType, "mp4"):
		return "mp4"
	}
	return ""
}

func videoExtension(mimeType string) string {
	if containerToken(mimeType) == "webm" {
		return ".webm"
	}
	return ".mp4"
}

func audioExtension(mimeType string) string {
	if containerToken(mimeType) == "webm" {
		return ".weba"
	}
	return ".m4a"
}
