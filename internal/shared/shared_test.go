package shared

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain name", input: "Road Trip", want: "Road Trip"},
		{name: "illegal characters", input: `a<b>c:d"e/f\g|h?i*j`, want: "abcdefghij"},
		{name: "hash is kept", input: "Mi playlist #40", want: "Mi playlist #40"},
		{name: "surrounding whitespace", input: "  Chill?  ", want: "Chill"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, _ := GenerateState()

	if len(a) != 32 {
		t.Errorf("expected 32 hex characters, got %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("state is not hex: %v", err)
	}
	if a == b {
		t.Error("expected two states to differ")
	}
}

func TestGenerateID(t *testing.T) {
	if id := GenerateID(); len(id) != 36 {
		t.Errorf("expected uuid string of length 36, got %q", id)
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(compact) != `{"a":1}` {
		t.Errorf("compact = %s", compact)
	}

	pretty, _ := MarshalJSON(v, true)
	if !bytes.Contains(pretty, []byte("\n  \"a\": 1")) {
		t.Errorf("pretty output not indented: %s", pretty)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "playlist", "Road Trip")
	logger.Info("cleared")

	out := buf.String()
	if !strings.Contains(out, "cleared") || !strings.Contains(out, "playlist=\"Road Trip\"") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chronolist.log")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("hello")
}

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "https://example.com")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for unsupported platform")
				}
				return
			}
			if err != nil {
				t.Fatalf("browserCommand() error = %v", err)
			}
			if filepath.Base(cmd.Args[0]) != tt.want {
				t.Errorf("command = %s, want %s", cmd.Args[0], tt.want)
			}
			if cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("url should be the last argument, got %v", cmd.Args)
			}
		})
	}
}

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() { getRuntime, startCommand = origRuntime, origStart })

	var started *exec.Cmd
	getRuntime = func() string { return "linux" }
	startCommand = func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}

	if err := OpenBrowser("https://example.com"); err != nil {
		t.Fatalf("OpenBrowser() error = %v", err)
	}
	if started == nil {
		t.Fatal("expected command to be started")
	}

	startCommand = func(*exec.Cmd) error { return errors.New("boom") }
	if err := OpenBrowser("https://example.com"); err == nil {
		t.Error("expected start failure to be returned")
	}
}
