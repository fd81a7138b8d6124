package matchmaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/rush-maximizer-go/internal/obslog"
	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

// ErrUnexpectedResponse is a lobby body that is neither a waiting status nor
// a formed match.
var ErrUnexpectedResponse = errors.New("lobby response carries neither match nor waiting status")

// Gateway is the slice of the network client the poller needs.
type Gateway interface {
	JoinLobby(ctx context.Context, req quizdto.LobbyJoinRequest) (*quizdto.LobbyResponse, error)
	JoinRoom(ctx context.Context, req quizdto.RoomJoinRequest) (*quizdto.LobbyResponse, error)
}

const defaultInterval = 3 * time.Second

// Poller resolves a matchmaking request into a formed game or a
// cancellation by polling the lobby/room endpoint on a fixed cadence. The
// cadence is deliberately constant: matchmaking latency is human-scale and
// backoff would only slow the join. At most one poll session is active per
// poller; starting a new session tears down the prior one.
type Poller struct {
	gw       Gateway
	interval time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

func New(gw Gateway, opts ...Option) *Poller {
	p := &Poller{gw: gw, interval: defaultInterval}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins a poll session for the given request. Any prior session is
// cancelled outright. The first poll is issued immediately.
func (p *Poller) Start(playerID string, req Request, h Handler) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	obslog.L().Info("lobby_poll_start", zap.String("player_id", playerID), zap.Uint64("session", gen))
	go p.run(ctx, gen, playerID, req, h)
}

// Stop cancels the active poll session, if any. Silent: no handler fires.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
}

func (p *Poller) run(ctx context.Context, gen uint64, playerID string, req Request, h Handler) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		if done := p.pollOnce(ctx, gen, playerID, req, h); done {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// pollOnce issues one lobby request and dispatches the outcome. It reports
// whether the session is over (matched, failed, or cancelled).
func (p *Poller) pollOnce(ctx context.Context, gen uint64, playerID string, req Request, h Handler) bool {
	var (
		resp *quizdto.LobbyResponse
		err  error
	)
	switch r := req.(type) {
	case Random:
		resp, err = p.gw.JoinLobby(ctx, quizdto.LobbyJoinRequest{PlayerID: playerID, Rule: r.Rule})
	case Room:
		resp, err = p.gw.JoinRoom(ctx, quizdto.RoomJoinRequest{PlayerID: playerID, RoomID: r.RoomID, Password: r.Password})
	default:
		err = errors.New("unknown matchmaking request variant")
	}

	if ctx.Err() != nil {
		return true
	}

	if err != nil {
		if p.finish(gen) {
			obslog.L().Warn("lobby_poll_error", zap.Uint64("session", gen), zap.Error(err))
			if h.OnFailed != nil {
				h.OnFailed(err)
			}
		}
		return true
	}

	if resp.GameID != "" {
		if p.finish(gen) {
			obslog.L().Info("lobby_matched",
				zap.Uint64("session", gen),
				zap.String("game_id", resp.GameID),
				zap.Int("questions", len(resp.Questions)),
			)
			if h.OnMatched != nil {
				h.OnMatched(Match{GameID: resp.GameID, Rule: resp.Rule, Questions: resp.Questions})
			}
		}
		return true
	}

	if resp.Waiting {
		if p.current(gen) && h.OnWaiting != nil {
			w := Waiting{Position: resp.Position}
			if _, ok := req.(Room); ok {
				w = Waiting{CurrentPlayers: resp.CurrentPlayers, MaxPlayers: resp.MaxPlayers}
			}
			h.OnWaiting(w)
		}
		return false
	}

	if p.finish(gen) {
		if h.OnFailed != nil {
			h.OnFailed(ErrUnexpectedResponse)
		}
	}
	return true
}

// finish claims the terminal transition for gen exactly once.
func (p *Poller) finish(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	return true
}

func (p *Poller) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.gen
}
