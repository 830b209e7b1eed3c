package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// capture redirects stdout for the duration of fn and returns what was written.
func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestInfo_Success_Warn_Error_NoPanic(t *testing.T) {
	out := capture(t, func() {
		Info("TAG", "message")
		Success("TAG", "message")
		Warn("TAG", "message")
		Error("TAG", "message")
	})
	if strings.Count(out, "[TAG]") != 4 {
		t.Errorf("expected 4 tagged lines, got %q", out)
	}
}

func TestBanner_NoPanic(t *testing.T) {
	out := capture(t, func() {
		Banner("v1.0.0")
		Banner("")
	})
	if !strings.Contains(out, "v1.0.0") || !strings.Contains(out, "dev") {
		t.Errorf("banner output = %q", out)
	}
}

func TestSectionAndStats_NoPanic(t *testing.T) {
	prev := colorOut
	colorOut = false
	defer func() { colorOut = prev }()

	out := capture(t, func() {
		Section("Universe")
		Stats("Systems", 8285)
		Server("127.0.0.1:13380")
	})
	if !strings.Contains(out, "Universe") {
		t.Errorf("missing section title in %q", out)
	}
	if !strings.Contains(out, "8,285") {
		t.Errorf("Stats should group digits, got %q", out)
	}
	if !strings.Contains(out, "http://127.0.0.1:13380") {
		t.Errorf("Server line = %q", out)
	}
}
