// Browser cookie capture for yt-dlp.
//
// A request copied from browser DevTools ("Copy as cURL") carries the signed-in
// YouTube cookies; these are converted to the Netscape cookie file yt-dlp reads.
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	curlHeaderFlag = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookieFlag = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
)

// CurlCapture holds the headers and cookie string pulled out of a cURL command.
type CurlCapture struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(path string) (*CurlCapture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts headers and cookies from a cURL command.
//
// A -b/--cookie flag wins over a Cookie header.
func ParseCurlCommand(data []byte) (*CurlCapture, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	capture := &CurlCapture{Headers: make(map[string]string)}
	var headerCookie string

	for _, m := range curlHeaderFlag.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		capture.Headers[key] = value
	}

	if m := curlCookieFlag.FindStringSubmatch(cmd); m != nil {
		capture.Cookie = firstGroup(m)
	} else {
		capture.Cookie = headerCookie
	}

	if len(capture.Headers) == 0 && capture.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return capture, nil
}

// CookiePairs splits the captured cookie string into name/value pairs, sorted by name.
func (c *CurlCapture) CookiePairs() [][2]string {
	var pairs [][2]string
	for _, part := range strings.Split(c.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		pairs = append(pairs, [2]string{name, value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// WriteNetscapeCookies writes the captured cookies in Netscape cookie file format for domain.
func (c *CurlCapture) WriteNetscapeCookies(w io.Writer, domain string) error {
	pairs := c.CookiePairs()
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no cookies captured", ErrInvalidInput)
	}
	if !strings.HasPrefix(domain, ".") {
		domain = "." + domain
	}

	if _, err := io.WriteString(w, "# Netscape HTTP Cookie File\n"); err != nil {
		return fmt.Errorf("failed to write cookie header: %w", err)
	}
	for _, p := range pairs {
		line := strings.Join([]string{domain, "TRUE", "/", "TRUE", "0", p[0], p[1]}, "\t") + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("failed to write cookie %s: %w", p[0], err)
		}
	}
	return nil
}

// SaveCookiesFile writes the Netscape cookie file to path, creating parent directories.
func (c *CurlCapture) SaveCookiesFile(path, domain string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()
	return c.WriteNetscapeCookies(f, domain)
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
