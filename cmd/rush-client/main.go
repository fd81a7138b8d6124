package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/kapu/rush-maximizer-go/internal/config"
	"github.com/kapu/rush-maximizer-go/internal/flow"
	"github.com/kapu/rush-maximizer-go/internal/gamefast"
	"github.com/kapu/rush-maximizer-go/internal/matchmaker"
	"github.com/kapu/rush-maximizer-go/internal/msgcat"
	"github.com/kapu/rush-maximizer-go/internal/obslog"
	"github.com/kapu/rush-maximizer-go/internal/presenter"
	"github.com/kapu/rush-maximizer-go/internal/profile"
	"github.com/kapu/rush-maximizer-go/internal/session"
	"github.com/kapu/rush-maximizer-go/internal/voicefast"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logging init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	cat, err := msgcat.New(cfg.TemplateDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	client := gamefast.NewClient(cfg.GameServerURL)

	store := openStore(cfg)
	pres := presenter.New(cat, func(line string) { fmt.Println(line) })

	lst := &recordingListener{Presenter: pres, store: store}
	poller := matchmaker.New(client, matchmaker.WithInterval(cfg.PollInterval))
	ctrl := flow.NewController(client, poller, lst,
		flow.WithAdvanceDelay(cfg.AdvanceDelay),
		flow.WithQuestionFilters(cfg.Category, cfg.Difficulty),
	)
	lst.ctrl = ctrl

	// returning players reuse their server identity
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if prof, err := store.Load(ctx, cfg.Nickname); err == nil && prof != nil {
		ctrl.SetIdentity(prof.PlayerID, prof.Nickname)
	}
	// FORCE_LM skips the health probe and uses the endpoint regardless
	playerID, err := ctrl.Connect(ctx, cfg.Nickname, cfg.LMServerURL, cfg.ForceLM)
	cancel()
	if err != nil {
		log.Fatalf("connect error: %v", err)
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Save(saveCtx, &profile.Profile{
		PlayerID: playerID,
		Nickname: cfg.Nickname,
		LMServer: cfg.LMServerURL,
	}); err != nil {
		obslog.L().Warn("profile_save_error", zap.Error(err))
	}
	cancel()

	voice := startVoice(cfg, ctrl)

	go commandLoop(cfg, client, ctrl, pres)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctrl.Abort()
	if voice != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = voice.Close(closeCtx)
		cancel()
	}
}

func openStore(cfg *appcfg.AppConfig) profile.Store {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return profile.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := profile.NewRedisStoreURL(ctx, cfg.RedisURL)
	if err != nil {
		obslog.L().Warn("redis_unavailable", zap.Error(err))
		return profile.NewMemoryStore()
	}
	return s
}

func startVoice(cfg *appcfg.AppConfig, ctrl *flow.Controller) *voicefast.Client {
	if strings.TrimSpace(cfg.VoiceWSURL) == "" {
		return nil
	}
	vc := voicefast.NewClient(cfg.VoiceWSURL, 5, time.Second)
	vc.OnTranscript(func(tr voicefast.Transcript) {
		if tr.Type != "final" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 40*time.Second)
		defer cancel()
		if err := ctrl.SubmitQuery(ctx, tr.Text); err != nil {
			obslog.L().Debug("voice_query_rejected", zap.Error(err))
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := vc.Connect(ctx); err != nil {
		obslog.L().Warn("voice_connect_error", zap.Error(err))
	}
	return vc
}

// recordingListener forwards every event to the presenter and additionally
// writes finished games into the local history.
type recordingListener struct {
	*presenter.Presenter
	store profile.Store
	ctrl  *flow.Controller
}

func (l *recordingListener) GameFinished(r flow.Result) {
	l.Presenter.GameFinished(r)
	if l.store == nil || l.ctrl == nil {
		return
	}
	// callbacks may not re-enter the controller, so record asynchronously
	go func() {
		playerID := l.ctrl.PlayerID()
		if playerID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := l.store.AppendHistory(ctx, playerID, profile.GameRecord{
			Mode:     string(r.Mode),
			Score:    r.Score,
			Correct:  r.Correct,
			Total:    r.Questions,
			Accuracy: r.Accuracy,
			Elapsed:  r.Elapsed,
			PlayedAt: time.Now(),
		})
		if err != nil {
			obslog.L().Warn("history_append_error", zap.Error(err))
		}
	}()
}

func commandLoop(cfg *appcfg.AppConfig, client *gamefast.Client, ctrl *flow.Controller, pres *presenter.Presenter) {
	fmt.Println(helpText())
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			// plain text is a query for the current question
			ctx, cancel := context.WithTimeout(context.Background(), 40*time.Second)
			_ = ctrl.SubmitQuery(ctx, line)
			cancel()
			continue
		}
		if handleCommand(cfg, client, ctrl, pres, line) {
			return
		}
	}
}

// handleCommand reports whether the loop should exit.
func handleCommand(cfg *appcfg.AppConfig, client *gamefast.Client, ctrl *flow.Controller, pres *presenter.Presenter, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "/solo":
		_ = ctrl.StartSolo(ctx, intArg(args, 0, cfg.QuestionsPerGame))
	case "/rta":
		_ = ctrl.StartRTA(ctx, intArg(args, 0, cfg.QuestionsPerGame))
	case "/practice":
		n := intArg(args, 0, cfg.PracticeQuestions)
		limit := intArg(args, 1, cfg.PracticeTimeLimit)
		_ = ctrl.StartPractice(ctx, n, limit)
	case "/random":
		rule := ""
		if len(args) > 0 {
			rule = args[0]
		}
		_ = ctrl.StartRandomMatch(rule)
	case "/create":
		if len(args) == 0 {
			fmt.Println("usage: /create <name> [password] [max-players]")
			return false
		}
		password := ""
		if len(args) > 1 {
			password = args[1]
		}
		roomID, err := ctrl.CreateRoomGame(ctx, args[0], password, intArg(args, 2, 2), "")
		if err == nil {
			fmt.Println("room created:", roomID)
		}
	case "/join":
		if len(args) == 0 {
			fmt.Println("usage: /join <room-id> [password]")
			return false
		}
		password := ""
		if len(args) > 1 {
			password = args[1]
		}
		_ = ctrl.JoinRoomGame(args[0], password)
	case "/cancel":
		ctrl.CancelMatchmaking()
	case "/giveup":
		ctrl.Abort()
	case "/q", "/question":
		ctrl.PresentCurrent()
	case "/top":
		mode := string(session.ModeSolo)
		if len(args) > 0 {
			mode = args[0]
		}
		resp, err := client.TopScores(ctx, mode)
		if err != nil {
			fmt.Println("leaderboard unavailable:", err)
			return false
		}
		pres.Leaderboard(mode, resp.Top)
	case "/stats":
		resp, err := client.ServerStats(ctx)
		if err != nil {
			fmt.Println("stats unavailable:", err)
			return false
		}
		pres.Stats(resp)
	case "/help":
		fmt.Println(helpText())
	case "/quit", "/exit":
		ctrl.Abort()
		return true
	default:
		fmt.Println("unknown command, try /help")
	}
	return false
}

func intArg(args []string, i, def int) int {
	if i >= len(args) {
		return def
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func helpText() string {
	return strings.Join([]string{
		"commands:",
		"  /solo [n]              start a solo game",
		"  /rta [n]               start a timed rush game",
		"  /practice [n] [secs]   start an unranked practice game",
		"  /random [rule]         queue for random matchmaking",
		"  /create <name> [pw] [max]  create a private room",
		"  /join <room-id> [pw]   join a private room",
		"  /cancel                leave the matchmaking queue",
		"  /question              show the current question again",
		"  /giveup                abandon the current game",
		"  /top [mode]            show the leaderboard",
		"  /stats                 show server stats",
		"  /quit                  exit",
		"type anything else to ask the AI about the current question",
	}, "\n")
}
