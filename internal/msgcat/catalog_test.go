package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaultsLoad(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := c.Render("notify.answer_leak", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(s, "answer") {
		t.Fatalf("unexpected message: %q", s)
	}
}

func TestRenderWithData(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := c.Render("game.question", map[string]any{"Index": 2, "Total": 10, "Prompt": "capital of Japan?"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s != "[2/10] capital of Japan?" {
		t.Fatalf("unexpected render: %q", s)
	}
}

func TestOverrideDirWins(t *testing.T) {
	dir := t.TempDir()
	override := "notify:\n  empty_query: \"say something!\"\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := c.Render("notify.empty_query", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s != "say something!" {
		t.Fatalf("override not applied: %q", s)
	}
}

func TestDuplicateOverrideKeysRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("notify:\n  connected: \"x\"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestTextFallsBackToKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("no.such.key", map[string]any{"Detail": "boom"}); got != "no.such.key: boom" {
		t.Fatalf("unexpected fallback: %q", got)
	}
	if got := c.Text("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}
