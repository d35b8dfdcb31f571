package shared

import (
	"fmt"
	"os"
	"path/filepath"
)

const cookiesFile = "cookies.txt"

// Layout describes the on-disk folders the service reads and writes.
type Layout struct {
	DownloadRoot string
	ConfigRoot   string
	// CookiesPath is empty when no shared cookie file exists.
	CookiesPath string
}

// EnsureLayout creates the download and config roots plus one subdirectory per user in each.
func EnsureLayout(downloadRoot, configRoot string, users []string) (*Layout, error) {
	dirs := []string{downloadRoot, configRoot}
	for _, u := range users {
		dirs = append(dirs, filepath.Join(downloadRoot, u), filepath.Join(configRoot, u))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	layout := &Layout{DownloadRoot: downloadRoot, ConfigRoot: configRoot}
	if path := layout.DefaultCookiesPath(); fileExists(path) {
		layout.CookiesPath = path
	}
	return layout, nil
}

// DefaultCookiesPath is where the shared cookie file lives whether or not it exists.
func (l *Layout) DefaultCookiesPath() string {
	return filepath.Join(l.ConfigRoot, cookiesFile)
}

// UserDownloadDir is the download folder for one user.
func (l *Layout) UserDownloadDir(user string) string {
	return filepath.Join(l.DownloadRoot, user)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
