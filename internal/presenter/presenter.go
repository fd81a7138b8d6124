package presenter

import (
	"strings"
	"sync"

	"github.com/kapu/rush-maximizer-go/internal/flow"
	"github.com/kapu/rush-maximizer-go/internal/matchmaker"
	"github.com/kapu/rush-maximizer-go/internal/msgcat"
	"github.com/kapu/rush-maximizer-go/internal/session"
	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

// Presenter renders game events into catalog messages and delivers them
// through an injected sink, without coupling to the command layer.
type Presenter struct {
	cat  *msgcat.Catalog
	send func(line string)

	// timer lines are throttled to every 10s plus the final countdown so
	// the console stays readable
	mu       sync.Mutex
	lastTick int
}

var _ flow.Listener = (*Presenter)(nil)

func New(cat *msgcat.Catalog, send func(line string)) *Presenter {
	return &Presenter{cat: cat, send: send}
}

func (p *Presenter) emit(key string, data map[string]any) {
	if p == nil || p.send == nil {
		return
	}
	p.send(p.cat.Text(key, data))
}

func (p *Presenter) GameStarted(mode session.Mode, total int) {
	p.mu.Lock()
	p.lastTick = 0
	p.mu.Unlock()
	p.emit("game.started", map[string]any{"Mode": string(mode), "Total": total})
}

func (p *Presenter) QuestionShown(view flow.QuestionView) {
	p.emit("game.question", map[string]any{
		"Index":  view.Index,
		"Total":  view.Total,
		"Prompt": view.Prompt,
	})
	if strings.TrimSpace(view.Target) != "" {
		p.emit("game.target", map[string]any{"Target": view.Target})
	}
}

func (p *Presenter) QuerySubmitted(attempt int, _ string) {
	p.emit("game.submitted", map[string]any{"Attempt": attempt})
}

func (p *Presenter) VerdictReached(v flow.Verdict) {
	key := "game.verdict_incorrect"
	if v.Correct {
		key = "game.verdict_correct"
	}
	p.emit(key, map[string]any{"Reply": v.Reply, "Reasoning": v.Reasoning})
}

func (p *Presenter) ScoreChanged(score, correct, attempts int) {
	p.emit("game.score", map[string]any{"Score": score, "Correct": correct, "Attempts": attempts})
}

func (p *Presenter) TimerTicked(remaining int) {
	if remaining > 10 && remaining%10 != 0 {
		return
	}
	p.mu.Lock()
	if remaining == p.lastTick {
		p.mu.Unlock()
		return
	}
	p.lastTick = remaining
	p.mu.Unlock()
	p.emit("game.timer", map[string]any{"Remaining": remaining})
}

func (p *Presenter) LobbyWaiting(w matchmaker.Waiting, room bool) {
	if room {
		p.emit("lobby.waiting_room", map[string]any{
			"CurrentPlayers": w.CurrentPlayers,
			"MaxPlayers":     w.MaxPlayers,
		})
		return
	}
	p.emit("lobby.waiting_queue", map[string]any{"Position": w.Position})
}

func (p *Presenter) GameFinished(r flow.Result) {
	key := "game.finished"
	if r.TimedOut {
		key = "game.finished_timeout"
	}
	p.emit(key, map[string]any{
		"Score":     r.Score,
		"Correct":   r.Correct,
		"Questions": r.Questions,
		"Accuracy":  r.Accuracy,
		"Elapsed":   r.Elapsed,
	})
}

func (p *Presenter) Notify(_ flow.Severity, code, detail string) {
	p.emit("notify."+code, map[string]any{"Detail": detail})
}

// Leaderboard renders a top-scores response.
func (p *Presenter) Leaderboard(mode string, entries []quizdto.ScoreEntry) {
	p.emit("board.header", map[string]any{"Mode": mode})
	for i, e := range entries {
		p.emit("board.row", map[string]any{
			"Rank":   i + 1,
			"Player": e.Player,
			"Score":  e.Score,
			"Time":   e.Time,
		})
	}
}

// Stats renders the server stats line.
func (p *Presenter) Stats(s *quizdto.ServerStatsResponse) {
	p.emit("board.stats", map[string]any{
		"ActivePlayers": s.ActivePlayers,
		"Waiting":       s.PlayersWaitingRandom,
		"ActiveGames":   s.ActiveGames,
		"ActiveRooms":   s.ActiveRooms,
	})
}
