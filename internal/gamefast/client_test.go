package gamefast

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestTransportFailureIsUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.Status(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestNon2xxIsHTTPError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	_, err := c.Status(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusBadGateway || httpErr.Body != "upstream down" {
		t.Fatalf("unexpected error: %+v", httpErr)
	}
}

func TestErrorFieldIsRejection(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "player not found"}`))
	})
	_, err := c.AskAI(context.Background(), quizdto.AskAIRequest{Question: "hint?", TargetAnswer: "Tokyo"})
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rej.Reason != "player not found" {
		t.Fatalf("unexpected reason: %q", rej.Reason)
	}
}

func TestGarbageBodyIsMalformed(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	_, err := c.Status(context.Background())
	var mal *MalformedError
	if !errors.As(err, &mal) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestProbeLMKeepsOwnErrorField(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "error": "connection refused"}`))
	})
	resp, err := c.ProbeLM(context.Background(), "http://lm.local")
	if err != nil {
		t.Fatalf("probe body error field must not become a rejection: %v", err)
	}
	if resp.OK || resp.Error != "connection refused" {
		t.Fatalf("unexpected probe response: %+v", resp)
	}
}

func TestRegisterRequiresPlayerID(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.Register(context.Background(), "alice")
	var mal *MalformedError
	if !errors.As(err, &mal) {
		t.Fatalf("expected MalformedError for missing player_id, got %v", err)
	}
}

func TestSoloQuestionsPassesFilters(t *testing.T) {
	var gotQuery string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"questions": [{"prompt": "q1", "answers": ["a"]}]}`))
	})
	resp, err := c.SoloQuestions(context.Background(), 5, "history", "hard")
	if err != nil {
		t.Fatalf("SoloQuestions: %v", err)
	}
	if len(resp.Questions) != 1 || resp.Questions[0].Prompt != "q1" {
		t.Fatalf("unexpected batch: %+v", resp)
	}
	want := "category=history&difficulty=hard&n=5"
	if gotQuery != want {
		t.Fatalf("query mismatch: %q != %q", gotQuery, want)
	}
}
