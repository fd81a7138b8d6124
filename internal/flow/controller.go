package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/rush-maximizer-go/internal/matchmaker"
	"github.com/kapu/rush-maximizer-go/internal/obslog"
	"github.com/kapu/rush-maximizer-go/internal/session"
	"github.com/kapu/rush-maximizer-go/internal/timer"
	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

// Scoring rules and mode time limits.
const (
	correctReward    = 100
	incorrectPenalty = -10
	rtaTimeLimit     = 180
)

// Gateway is the slice of the network client the controller drives.
type Gateway interface {
	Status(ctx context.Context) (*quizdto.StatusResponse, error)
	ProbeLM(ctx context.Context, lmServer string) (*quizdto.ProbeLMResponse, error)
	Register(ctx context.Context, nickname string) (*quizdto.RegisterResponse, error)
	SoloQuestions(ctx context.Context, n int, category, difficulty string) (*quizdto.QuestionsResponse, error)
	AskAI(ctx context.Context, req quizdto.AskAIRequest) (*quizdto.AskAIResponse, error)
	CreateRoom(ctx context.Context, req quizdto.RoomCreateRequest) (*quizdto.RoomCreateResponse, error)
	SubmitScore(ctx context.Context, req quizdto.ScoreSubmitRequest) error
}

// Controller orchestrates a game session: it owns the session state, the
// countdown, and the matchmaking poller, and reconciles asynchronous
// responses with local state. All mutation happens under mu; periodic
// callbacks carry the session generation they were scheduled for and bail
// out when it has moved on, so a stale timer or poll can never touch a
// fresh game.
type Controller struct {
	gw       Gateway
	poller   *matchmaker.Poller
	listener Listener

	mu        sync.Mutex
	phase     GamePhase
	state     session.State
	clock     *timer.Engine
	gen       uint64
	sessionID string

	inFlight     bool
	advanceTimer *time.Timer
	advanceDelay time.Duration

	playerID   string
	nickname   string
	lmServer   string
	category   string
	difficulty string
}

type Option func(*Controller)

// WithAdvanceDelay overrides the pause between a correct verdict and the
// next question.
func WithAdvanceDelay(d time.Duration) Option {
	return func(c *Controller) { c.advanceDelay = d }
}

// WithQuestionFilters forwards category/difficulty to batch fetches.
func WithQuestionFilters(category, difficulty string) Option {
	return func(c *Controller) { c.category, c.difficulty = category, difficulty }
}

func withManualClock() Option {
	return func(c *Controller) { c.clock = timer.New(c.onTick, c.onExpire, timer.WithManualClock()) }
}

func NewController(gw Gateway, poller *matchmaker.Poller, listener Listener, opts ...Option) *Controller {
	if listener == nil {
		listener = NopListener{}
	}
	c := &Controller{
		gw:           gw,
		poller:       poller,
		listener:     listener,
		phase:        PhaseIdle,
		advanceDelay: 1500 * time.Millisecond,
	}
	c.clock = timer.New(c.onTick, c.onExpire)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetIdentity installs the persisted player identity.
func (c *Controller) SetIdentity(playerID, nickname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = strings.TrimSpace(playerID)
	c.nickname = strings.TrimSpace(nickname)
}

// SetLMServer sets the AI endpoint forwarded with every ask_ai call.
func (c *Controller) SetLMServer(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lmServer = strings.TrimSpace(url)
}

func (c *Controller) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *Controller) Phase() GamePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a copy of the current session state for display.
func (c *Controller) Snapshot() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect verifies the server, probes the AI endpoint unless skipped, and
// registers the nickname when no player identity is known yet. It returns
// the (possibly freshly assigned) player id.
func (c *Controller) Connect(ctx context.Context, nickname, lmServer string, skipProbe bool) (string, error) {
	status, err := c.gw.Status(ctx)
	if err != nil {
		c.listener.Notify(SeverityError, "connect_failed", err.Error())
		return "", err
	}

	if lm := strings.TrimSpace(lmServer); lm != "" && !skipProbe {
		probe, err := c.gw.ProbeLM(ctx, lm)
		if err != nil {
			c.listener.Notify(SeverityError, "lm_probe_failed", err.Error())
			return "", err
		}
		if !probe.OK {
			c.listener.Notify(SeverityError, "lm_probe_failed", probe.Error)
			return "", &probeError{reason: probe.Error}
		}
	}

	c.mu.Lock()
	c.nickname = strings.TrimSpace(nickname)
	c.lmServer = strings.TrimSpace(lmServer)
	playerID := c.playerID
	c.mu.Unlock()

	if playerID == "" {
		reg, err := c.gw.Register(ctx, nickname)
		if err != nil {
			c.listener.Notify(SeverityError, "register_failed", err.Error())
			return "", err
		}
		playerID = reg.PlayerID
		c.mu.Lock()
		c.playerID = playerID
		c.mu.Unlock()
	}

	obslog.L().Info("connected",
		zap.String("server_id", status.ServerID),
		zap.String("player_id", playerID),
	)
	c.listener.Notify(SeveritySuccess, "connected", status.ServerID)
	return playerID, nil
}

type probeError struct{ reason string }

func (e *probeError) Error() string { return "ai endpoint probe failed: " + e.reason }

// StartSolo fetches a batch and begins an untimed solo game.
func (c *Controller) StartSolo(ctx context.Context, n int) error {
	return c.fetchAndStart(ctx, session.ModeSolo, n, 0)
}

// StartRTA fetches a batch and begins a fixed-duration timed game.
func (c *Controller) StartRTA(ctx context.Context, n int) error {
	return c.fetchAndStart(ctx, session.ModeRTA, n, rtaTimeLimit)
}

// StartPractice begins a game with a player-chosen size and time limit.
// Practice results are never submitted to the leaderboard.
func (c *Controller) StartPractice(ctx context.Context, n, timeLimit int) error {
	return c.fetchAndStart(ctx, session.ModePractice, n, timeLimit)
}

func (c *Controller) fetchAndStart(ctx context.Context, mode session.Mode, n, timeLimit int) error {
	// leave any matchmaking queue before the new game begins
	c.poller.Stop()
	c.mu.Lock()
	if c.phase == PhaseMatching {
		c.phase = PhaseIdle
	}
	c.mu.Unlock()

	resp, err := c.gw.SoloQuestions(ctx, n, c.category, c.difficulty)
	if err != nil {
		c.listener.Notify(SeverityError, "fetch_failed", err.Error())
		return err
	}
	if len(resp.Questions) == 0 {
		c.listener.Notify(SeverityError, "fetch_failed", "empty question batch")
		return matchmaker.ErrUnexpectedResponse
	}
	c.startGame(mode, session.QuestionsFromDTO(resp.Questions), "", timeLimit)
	return nil
}

// StartRandomMatch queues for random matchmaking under a rule. The poller
// hands the formed game back into the controller.
func (c *Controller) StartRandomMatch(rule string) error {
	return c.startMatchmaking(matchmaker.Random{Rule: rule}, false)
}

// JoinRoomGame polls a private room until the room fills.
func (c *Controller) JoinRoomGame(roomID, password string) error {
	if strings.TrimSpace(roomID) == "" {
		return ErrEmptyQuery
	}
	return c.startMatchmaking(matchmaker.Room{RoomID: roomID, Password: password}, true)
}

// CreateRoomGame creates a private room and immediately starts polling it;
// the creator waits in their own room like any other member.
func (c *Controller) CreateRoomGame(ctx context.Context, name, password string, maxPlayers int, rule string) (string, error) {
	c.mu.Lock()
	playerID := c.playerID
	c.mu.Unlock()
	if playerID == "" {
		return "", ErrNotConnected
	}
	resp, err := c.gw.CreateRoom(ctx, quizdto.RoomCreateRequest{
		PlayerID:   playerID,
		Name:       name,
		Password:   password,
		MaxPlayers: maxPlayers,
		Rule:       rule,
	})
	if err != nil {
		c.listener.Notify(SeverityError, "room_create_failed", err.Error())
		return "", err
	}
	obslog.L().Info("room_created", zap.String("room_id", resp.RoomID))
	if err := c.startMatchmaking(matchmaker.Room{RoomID: resp.RoomID, Password: password}, true); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

func (c *Controller) startMatchmaking(req matchmaker.Request, room bool) error {
	c.mu.Lock()
	playerID := c.playerID
	if playerID == "" {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.cancelGameLocked()
	c.phase = PhaseMatching
	c.mu.Unlock()

	c.poller.Start(playerID, req, matchmaker.Handler{
		OnWaiting: func(w matchmaker.Waiting) {
			if c.Phase() != PhaseMatching {
				return
			}
			c.listener.LobbyWaiting(w, room)
		},
		OnMatched: func(m matchmaker.Match) {
			// a game started since this poll was issued wins over the match
			if c.Phase() != PhaseMatching {
				return
			}
			c.listener.Notify(SeveritySuccess, "matched", m.GameID)
			c.startGame(session.ModeVS, session.QuestionsFromDTO(m.Questions), m.GameID, 0)
		},
		OnFailed: func(err error) {
			c.mu.Lock()
			if c.phase == PhaseMatching {
				c.phase = PhaseIdle
			}
			c.mu.Unlock()
			c.listener.Notify(SeverityError, "lobby_error", err.Error())
		},
	})
	return nil
}

// CancelMatchmaking aborts the active poll session silently.
func (c *Controller) CancelMatchmaking() {
	c.poller.Stop()
	c.mu.Lock()
	if c.phase == PhaseMatching {
		c.phase = PhaseIdle
	}
	c.mu.Unlock()
}

// startGame discards any previous game outright and begins a new one. The
// poller is stopped first so a pending lobby poll can never resolve into a
// stale match on top of this game.
func (c *Controller) startGame(mode session.Mode, questions session.QuestionSet, gameID string, timeLimit int) {
	c.poller.Stop()
	c.mu.Lock()
	c.cancelGameLocked()
	c.gen++
	c.sessionID = uuid.NewString()
	c.state.Reset(mode, questions, timeLimit)
	c.state.GameID = gameID
	c.phase = PhaseInProgress
	c.inFlight = false
	total := len(questions)
	sessionID := c.sessionID
	c.mu.Unlock()

	obslog.L().Info("game_start",
		zap.String("session_id", sessionID),
		zap.String("mode", string(mode)),
		zap.String("game_id", gameID),
		zap.Int("questions", total),
		zap.Int("time_limit", timeLimit),
	)
	c.listener.GameStarted(mode, total)
	c.clock.Start(timeLimit)

	c.mu.Lock()
	c.presentCurrentLocked()
	c.mu.Unlock()
}

// Abort tears the current game or poll session down without finalizing,
// e.g. when the player returns to the menu.
func (c *Controller) Abort() {
	c.poller.Stop()
	c.mu.Lock()
	c.cancelGameLocked()
	c.phase = PhaseIdle
	c.mu.Unlock()
}

// cancelGameLocked invalidates every scheduled callback of the current
// session. Callers hold mu.
func (c *Controller) cancelGameLocked() {
	c.gen++
	c.clock.Stop()
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
		c.advanceTimer = nil
	}
	c.inFlight = false
}

// PresentCurrent re-emits the current question view, finalizing instead
// when the set is exhausted.
func (c *Controller) PresentCurrent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseInProgress {
		return
	}
	c.presentCurrentLocked()
}

func (c *Controller) presentCurrentLocked() {
	q, ok := c.state.Current()
	if !ok {
		c.finalizeLocked(false)
		return
	}
	target := strings.Join(q.Answers, " / ")
	if c.state.Mode == session.ModeVS {
		// server-arbitrated mode: never leak the answer client-side
		target = "???"
	}
	c.listener.QuestionShown(QuestionView{
		Index:  c.state.Cursor + 1,
		Total:  len(c.state.Questions),
		Prompt: q.Prompt,
		Target: target,
	})
}

// SubmitQuery validates and sends one player query to the AI judge, then
// applies the verdict. Submissions are serialized: a second call while one
// is in flight returns ErrBusy without side effects.
func (c *Controller) SubmitQuery(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.phase != PhaseInProgress {
		c.mu.Unlock()
		return ErrNoActiveGame
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	q, ok := c.state.Current()
	if !ok {
		c.mu.Unlock()
		return ErrNoActiveGame
	}
	if text == "" {
		c.mu.Unlock()
		c.listener.Notify(SeverityError, "empty_query", "")
		return ErrEmptyQuery
	}
	if c.state.Mode != session.ModeVS && q.LeaksAnswer(text) {
		c.mu.Unlock()
		c.listener.Notify(SeverityError, "answer_leak", text)
		return ErrAnswerLeak
	}
	c.inFlight = true
	gen := c.gen
	attempt := c.state.Attempts + 1
	lm := c.lmServer
	c.mu.Unlock()

	c.listener.QuerySubmitted(attempt, text)

	resp, err := c.gw.AskAI(ctx, quizdto.AskAIRequest{
		Question:     text,
		TargetAnswer: q.PrimaryAnswer(),
		LMServer:     lm,
	})

	c.mu.Lock()
	if gen != c.gen {
		// game was reset while the call was in flight; drop the response
		c.mu.Unlock()
		return nil
	}
	c.inFlight = false
	sessionID := c.sessionID

	if err != nil {
		c.state.RecordAttempt(false)
		c.mu.Unlock()
		obslog.L().Warn("ask_ai_error", zap.String("session_id", sessionID), zap.Error(err))
		c.listener.Notify(SeverityError, "ai_error", err.Error())
		return err
	}

	verdict := Verdict{
		Reply:     resp.AIResponse,
		Reasoning: resp.Reasoning,
		Correct:   q.MatchesReply(resp.AIResponse),
	}
	if resp.Valid != nil && !*resp.Valid {
		verdict.Invalid = true
		verdict.InvalidReason = resp.InvalidReason
	}

	c.state.RecordAttempt(verdict.Correct)
	if verdict.Correct {
		c.state.ApplyScoreDelta(correctReward)
	} else {
		c.state.ApplyScoreDelta(incorrectPenalty)
	}
	score, correct, attempts := c.state.Score, c.state.Correct, c.state.Attempts
	c.mu.Unlock()

	obslog.L().Info("query_judged",
		zap.String("session_id", sessionID),
		zap.Int("attempt", attempts),
		zap.Bool("correct", verdict.Correct),
		zap.Int("score", score),
	)
	if verdict.Invalid {
		c.listener.Notify(SeverityError, "ai_invalid", verdict.InvalidReason)
	}
	c.listener.VerdictReached(verdict)
	c.listener.ScoreChanged(score, correct, attempts)

	if verdict.Correct {
		c.scheduleAdvance(gen)
	}
	return nil
}

// scheduleAdvance defers the move to the next question so the player sees
// the correct feedback first. The task is cancelable and generation-guarded.
func (c *Controller) scheduleAdvance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
	}
	c.advanceTimer = time.AfterFunc(c.advanceDelay, func() { c.completeAdvance(gen) })
}

func (c *Controller) completeAdvance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.phase != PhaseInProgress {
		return
	}
	if c.state.Advance() {
		c.finalizeLocked(false)
		return
	}
	c.presentCurrentLocked()
}

// onTick mirrors the countdown into session state for display.
func (c *Controller) onTick(remaining int) {
	c.mu.Lock()
	if c.phase != PhaseInProgress {
		c.mu.Unlock()
		return
	}
	c.state.TimeRemaining = remaining
	c.mu.Unlock()
	c.listener.TimerTicked(remaining)
}

// onExpire is the timer's autonomous end-of-game signal; it funnels into
// the same finalize path as question exhaustion.
func (c *Controller) onExpire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseInProgress {
		return
	}
	c.state.TimeRemaining = 0
	c.finalizeLocked(true)
}

// finalizeLocked closes the game, reports the result, and submits the score
// for ranked modes. Callers hold mu.
func (c *Controller) finalizeLocked(timedOut bool) {
	c.clock.Stop()
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
		c.advanceTimer = nil
	}
	c.gen++
	c.phase = PhaseIdle

	r := Result{
		Mode:      c.state.Mode,
		Score:     c.state.Score,
		Correct:   c.state.Correct,
		Questions: len(c.state.Questions),
		Attempts:  c.state.Attempts,
		Accuracy:  c.state.Accuracy(),
		Elapsed:   c.state.Elapsed(),
		TimedOut:  timedOut,
	}
	sessionID := c.sessionID
	playerID := c.playerID

	obslog.L().Info("game_finished",
		zap.String("session_id", sessionID),
		zap.String("mode", string(r.Mode)),
		zap.Int("score", r.Score),
		zap.Int("correct", r.Correct),
		zap.Int("accuracy", r.Accuracy),
		zap.Int("elapsed", r.Elapsed),
		zap.Bool("timed_out", timedOut),
	)
	c.listener.GameFinished(r)

	if r.Mode == session.ModePractice || playerID == "" {
		return
	}
	// fire-and-forget: a failed submission never alters the local result
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := c.gw.SubmitScore(ctx, quizdto.ScoreSubmitRequest{
			PlayerID:    playerID,
			Mode:        string(r.Mode),
			Score:       r.Score,
			TimeSeconds: r.Elapsed,
		})
		if err != nil {
			obslog.L().Warn("score_submit_error", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}
