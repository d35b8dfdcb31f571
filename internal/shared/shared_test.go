package shared

import (
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalize(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Blinding Lights", want: "Blinding Lights"},
		{name: "forbidden characters", in: `AC/DC: Back\In*Black?"<>|`, want: "AC DC Back In Black"},
		{name: "whitespace runs", in: "  Song \t\n  Title  ", want: "Song Title"},
		{name: "only forbidden", in: `/\:*?"<>|`, want: ""},
		{name: "empty", in: "", want: ""},
		{name: "unicode kept", in: "Beyoncé — Halo", want: "Beyoncé — Halo"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeProperties(t *testing.T) {
	inputs := []string{
		"", " ", "a", "  a  b  ", "a/b\\c:d*e?f\"g<h>i|j", "\t\tTabs\tand\nnewlines\r\n",
		"Song (feat. X) - Remix", "::::", "trailing / ", "Ünïcödé   ☃  ", "a | | b",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		if strings.ContainsAny(once, `/\:*?"<>|`) {
			t.Errorf("Normalize(%q) = %q still has a forbidden character", in, once)
		}
		if strings.Contains(once, "  ") {
			t.Errorf("Normalize(%q) = %q has doubled whitespace", in, once)
		}
		if once != strings.TrimSpace(once) {
			t.Errorf("Normalize(%q) = %q has edge whitespace", in, once)
		}
	}
}

func TestNormalizeLower(t *testing.T) {
	if got := NormalizeLower("  The WEEKND: Blinding   Lights "); got != "the weeknd blinding lights" {
		t.Errorf("NormalizeLower() = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tc := map[string]log.Level{
		"debug":   log.DebugLevel,
		"WARN":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}
	for in, want := range tc {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServerURL(t *testing.T) {
	if got := ServerURL("0.0.0.0", 5002, "alice"); got != "http://localhost:5002/?user=alice" {
		t.Errorf("ServerURL() = %q", got)
	}
	if got := ServerURL("127.0.0.1", 80, ""); got != "http://127.0.0.1:80/" {
		t.Errorf("ServerURL() = %q", got)
	}
}

func TestOpenBrowserUnsupported(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()
	getRuntime = func() string { return "plan9" }

	if err := OpenBrowser("http://localhost"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
