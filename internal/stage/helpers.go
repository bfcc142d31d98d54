package stage

import (
	"fmt"
	"os"
	"strings"

	"telefetch/internal/services"
)

// RequireFile verifies that a stage input exists and is a non-empty regular
// file, returning its size. Failures come back as services.ErrValidation so
// Execute methods can surface them directly.
func RequireFile(path, what string) (int64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, services.Wrap(services.ErrValidation, "stage", "check "+what,
			fmt.Sprintf("%s path is empty", what), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "stage", "check "+what,
			fmt.Sprintf("%s is missing", what), err)
	}
	if info.IsDir() {
		return 0, services.Wrap(services.ErrValidation, "stage", "check "+what,
			fmt.Sprintf("%s is a directory, expected a file", what), nil)
	}
	if info.Size() == 0 {
		return 0, services.Wrap(services.ErrValidation, "stage", "check "+what,
			fmt.Sprintf("%s is empty", what), nil)
	}
	return info.Size(), nil
}
