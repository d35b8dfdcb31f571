package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureLayout(t *testing.T) {
	root := t.TempDir()
	downloads := filepath.Join(root, "downloads")
	config := filepath.Join(root, "config")

	layout, err := EnsureLayout(downloads, config, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(downloads, "alice"),
		filepath.Join(downloads, "bob"),
		filepath.Join(config, "alice"),
		filepath.Join(config, "bob"),
	} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
	if layout.CookiesPath != "" {
		t.Errorf("expected no cookies path, got %s", layout.CookiesPath)
	}
	if layout.UserDownloadDir("alice") != filepath.Join(downloads, "alice") {
		t.Errorf("unexpected user dir %s", layout.UserDownloadDir("alice"))
	}

	t.Run("detects cookie file", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(config, "cookies.txt"), []byte("# Netscape HTTP Cookie File\n"), 0600); err != nil {
			t.Fatal(err)
		}
		layout, err := EnsureLayout(downloads, config, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if layout.CookiesPath != filepath.Join(config, "cookies.txt") {
			t.Errorf("expected cookies path, got %q", layout.CookiesPath)
		}
	})
}
