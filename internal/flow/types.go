package flow

import (
	"errors"

	"github.com/kapu/rush-maximizer-go/internal/matchmaker"
	"github.com/kapu/rush-maximizer-go/internal/session"
)

// GamePhase is the per-game lifecycle of the controller.
type GamePhase string

const (
	PhaseIdle       GamePhase = "IDLE"
	PhaseMatching   GamePhase = "MATCHING"
	PhaseInProgress GamePhase = "IN_PROGRESS"
)

var (
	ErrNotConnected = errors.New("not connected to a game server")
	ErrNoActiveGame = errors.New("no game in progress")
	ErrBusy         = errors.New("a query is already in flight")
	ErrEmptyQuery   = errors.New("query text is empty")
	ErrAnswerLeak   = errors.New("query contains an accepted answer")
)

// QuestionView is what the presentation layer renders for one question.
// Target is the joined accepted answers, or "???" when the mode hides them.
type QuestionView struct {
	Index  int
	Total  int
	Prompt string
	Target string
}

// Verdict is the interpreted outcome of one ask_ai exchange.
type Verdict struct {
	Reply         string
	Reasoning     string
	Correct       bool
	Invalid       bool
	InvalidReason string
}

// Result is the finalized summary of a game.
type Result struct {
	Mode      session.Mode
	Score     int
	Correct   int
	Questions int
	Attempts  int
	Accuracy  int
	Elapsed   int
	TimedOut  bool
}

// Severity classifies notifications for the presentation layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Listener is the presentation adapter contract: the controller notifies it
// on every state change and never touches rendering itself. Callbacks run on
// the controller's logical thread; implementations must not call back into
// the controller from within a callback.
type Listener interface {
	GameStarted(mode session.Mode, totalQuestions int)
	QuestionShown(view QuestionView)
	QuerySubmitted(n int, text string)
	VerdictReached(v Verdict)
	ScoreChanged(score, correct, attempts int)
	TimerTicked(remaining int)
	LobbyWaiting(w matchmaker.Waiting, room bool)
	GameFinished(r Result)
	// Notify carries a stable message code plus free-form detail; the
	// presenter resolves the code to display text.
	Notify(sev Severity, code, detail string)
}

// NopListener is a Listener that ignores everything; embed it to implement
// only the callbacks a presenter cares about.
type NopListener struct{}

func (NopListener) GameStarted(session.Mode, int)         {}
func (NopListener) QuestionShown(QuestionView)            {}
func (NopListener) QuerySubmitted(int, string)            {}
func (NopListener) VerdictReached(Verdict)                {}
func (NopListener) ScoreChanged(int, int, int)            {}
func (NopListener) TimerTicked(int)                       {}
func (NopListener) LobbyWaiting(matchmaker.Waiting, bool) {}
func (NopListener) GameFinished(Result)                   {}
func (NopListener) Notify(Severity, string, string)       {}
