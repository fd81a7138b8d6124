package presenter

import (
	"strings"
	"testing"

	"github.com/kapu/rush-maximizer-go/internal/flow"
	"github.com/kapu/rush-maximizer-go/internal/msgcat"
	"github.com/kapu/rush-maximizer-go/internal/session"
	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

func newCapture(t *testing.T) (*Presenter, *[]string) {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	var lines []string
	p := New(cat, func(line string) { lines = append(lines, line) })
	return p, &lines
}

func TestQuestionShownHidesEmptyTarget(t *testing.T) {
	p, lines := newCapture(t)

	p.QuestionShown(flow.QuestionView{Index: 1, Total: 5, Prompt: "capital of Japan?", Target: "Tokyo / Edo"})
	if len(*lines) != 2 {
		t.Fatalf("expected prompt and target lines, got %v", *lines)
	}
	if !strings.Contains((*lines)[1], "Tokyo / Edo") {
		t.Fatalf("target line missing: %q", (*lines)[1])
	}

	*lines = nil
	p.QuestionShown(flow.QuestionView{Index: 1, Total: 5, Prompt: "hidden one", Target: ""})
	if len(*lines) != 1 {
		t.Fatalf("expected prompt only, got %v", *lines)
	}
}

func TestTimerThrottling(t *testing.T) {
	p, lines := newCapture(t)
	p.GameStarted(session.ModeRTA, 10)
	*lines = nil

	for r := 60; r >= 1; r-- {
		p.TimerTicked(r)
	}
	// 60, 50, 40, 30, 20 then 10..1
	if len(*lines) != 15 {
		t.Fatalf("expected 15 timer lines, got %d: %v", len(*lines), *lines)
	}
}

func TestVerdictUsesCorrectTemplate(t *testing.T) {
	p, lines := newCapture(t)

	p.VerdictReached(flow.Verdict{Reply: "It is Tokyo.", Correct: true})
	p.VerdictReached(flow.Verdict{Reply: "No idea.", Correct: false})
	if len(*lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", *lines)
	}
	if !strings.Contains((*lines)[0], "CORRECT") || strings.Contains((*lines)[1], "CORRECT") {
		t.Fatalf("verdict templates mixed up: %v", *lines)
	}
}

func TestUnknownNotifyCodeStillRenders(t *testing.T) {
	p, lines := newCapture(t)
	p.Notify(flow.SeverityError, "brand_new_code", "details here")
	if len(*lines) != 1 || !strings.Contains((*lines)[0], "details here") {
		t.Fatalf("fallback rendering broken: %v", *lines)
	}
}

func TestLeaderboardRendering(t *testing.T) {
	p, lines := newCapture(t)
	p.Leaderboard("solo", []quizdto.ScoreEntry{
		{Player: "alice", Score: 900, Time: 120},
		{Player: "bob", Score: 700, Time: 150},
	})
	if len(*lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %v", *lines)
	}
	if !strings.Contains((*lines)[1], "alice") || !strings.Contains((*lines)[1], "1.") {
		t.Fatalf("unexpected first row: %q", (*lines)[1])
	}
}
