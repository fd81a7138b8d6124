package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kapu/rush-maximizer-go/internal/gamefast"
	"github.com/kapu/rush-maximizer-go/internal/voicefast"
)

// rushcheck probes every backend the client depends on and exits non-zero
// when a required one is down.
func main() {
	baseURL := strings.TrimSpace(os.Getenv("GAME_SERVER_URL"))
	lmURL := strings.TrimSpace(os.Getenv("LM_SERVER_URL"))
	voiceURL := strings.TrimSpace(os.Getenv("VOICE_WS_URL"))

	if baseURL == "" {
		log.Fatal("GAME_SERVER_URL is required")
	}

	client := gamefast.NewClient(baseURL, gamefast.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		status, err := client.Status(gctx)
		if err != nil {
			log.Printf("/status error: %v", err)
			return err
		}
		log.Printf("/status ok: server=%s questions=%d", status.ServerID, status.QuestionsCount)
		return nil
	})

	g.Go(func() error {
		stats, err := client.ServerStats(gctx)
		if err != nil {
			// stats are informational only
			log.Printf("/server/stats error: %v", err)
			return nil
		}
		log.Printf("/server/stats ok: players=%d queued=%d games=%d rooms=%d",
			stats.ActivePlayers, stats.PlayersWaitingRandom, stats.ActiveGames, stats.ActiveRooms)
		return nil
	})

	if lmURL != "" {
		g.Go(func() error {
			probe, err := client.ProbeLM(gctx, lmURL)
			if err != nil {
				log.Printf("/probe_lm error: %v", err)
				return err
			}
			if !probe.OK {
				log.Printf("/probe_lm rejected: %s", probe.Error)
				return nil
			}
			log.Printf("/probe_lm ok: checked=%s", probe.Checked)
			return nil
		})
	} else {
		log.Println("LM_SERVER_URL not set; skipping AI endpoint check")
	}

	if voiceURL != "" {
		g.Go(func() error {
			vc := voicefast.NewClient(voiceURL, 0, time.Second)
			if err := vc.Connect(gctx); err != nil {
				log.Printf("voice WS connect error: %v", err)
				return nil
			}
			log.Printf("voice WS ok: %s", vc.State())
			closeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return vc.Close(closeCtx)
		})
	} else {
		log.Println("VOICE_WS_URL not set; skipping voice check")
	}

	if err := g.Wait(); err != nil {
		os.Exit(1)
	}
}
