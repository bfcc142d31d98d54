package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// mp4Header is the start of a minimal ISO base media file. Fixtures only
// need to look like the containers the pipeline shuffles around; nothing in
// the tests parses past these bytes.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x14, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm',
}

// WriteFile creates path with exactly size bytes: an MP4-style header
// followed by padding. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	data := make([]byte, size)
	n := copy(data, mp4Header)
	for i := n; i < len(data); i++ {
		data[i] = 0x42
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
