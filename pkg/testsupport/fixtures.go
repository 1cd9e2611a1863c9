package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteContentDir creates a temporary content directory populated with the
// supplied files (name -> contents) and returns its path.
func WriteContentDir(tb testing.TB, files map[string]string) string {
	tb.Helper()
	dir := tb.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			tb.Fatalf("write fixture %s: %v", path, err)
		}
	}
	return dir
}

// PostFile renders a post file with the standard frontmatter keys followed
// by body.
func PostFile(title, date, readTime, category, body string) string {
	return "---\n" +
		"title: " + quote(title) + "\n" +
		"date: " + quote(date) + "\n" +
		"readTime: " + quote(readTime) + "\n" +
		"category: " + quote(category) + "\n" +
		"---\n\n" + body
}

// LoadGolden decodes a JSON golden file into v.
func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func quote(value string) string {
	encoded, _ := json.Marshal(value)
	return string(encoded)
}
