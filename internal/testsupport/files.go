package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// StageFiles plays the part of a finished download. It resolves the staging
// directory from a yt-dlp --output value and writes each name there with a
// short payload. The directory is returned.
func StageFiles(t testing.TB, output string, names ...string) string {
	t.Helper()

	dir := strings.ReplaceAll(filepath.Dir(output), "%%", "%")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}
