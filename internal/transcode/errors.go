package transcode

import (
	"fmt"

	"telefetch/internal/services"
)

// TooLargeError reports that every attempted rung produced a file above the
// delivery ceiling.
type TooLargeError struct {
	Ceiling      int64
	OriginalSize int64
	BestSize     int64 // smallest rung output observed, 0 when unknown
	Rungs        int
}

func (e *TooLargeError) Error() string {
	if e.BestSize > 0 {
		return fmt.Sprintf("no rung fits under %d bytes: original %d bytes, smallest of %d attempts %d bytes",
			e.Ceiling, e.OriginalSize, e.Rungs, e.BestSize)
	}
	return fmt.Sprintf("no rung fits under %d bytes: original %d bytes after %d attempts",
		e.Ceiling, e.OriginalSize, e.Rungs)
}

func (e *TooLargeError) Unwrap() error {
	return services.ErrTooLarge
}
