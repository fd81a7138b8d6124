package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds every knob the client reads from the environment.
// Persisted values (server addresses, nickname, player identity) from the
// profile store override the GAME_SERVER_URL/LM_SERVER_URL/NICKNAME seeds.
type AppConfig struct {
	GameServerURL string
	LMServerURL   string
	Nickname      string

	// ForceLM skips the /probe_lm reachability check at connect time.
	ForceLM bool

	RedisURL    string
	VoiceWSURL  string
	TemplateDir string

	QuestionsPerGame int
	Category         string
	Difficulty       string

	PracticeQuestions int
	PracticeTimeLimit int

	PollInterval time.Duration
	AdvanceDelay time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		QuestionsPerGame:  10,
		PracticeQuestions: 10,
		PracticeTimeLimit: 300,
		PollInterval:      3 * time.Second,
		AdvanceDelay:      1500 * time.Millisecond,
	}

	cfg.GameServerURL = strings.TrimSpace(os.Getenv("GAME_SERVER_URL"))
	cfg.LMServerURL = strings.TrimSpace(os.Getenv("LM_SERVER_URL"))
	cfg.Nickname = strings.TrimSpace(os.Getenv("NICKNAME"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.VoiceWSURL = strings.TrimSpace(os.Getenv("VOICE_WS_URL"))
	cfg.TemplateDir = strings.TrimSpace(os.Getenv("MESSAGE_TEMPLATE_DIR"))
	cfg.Category = strings.TrimSpace(os.Getenv("QUESTION_CATEGORY"))
	cfg.Difficulty = strings.TrimSpace(os.Getenv("QUESTION_DIFFICULTY"))

	if v := strings.TrimSpace(os.Getenv("FORCE_LM")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ForceLM = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("QUESTIONS_PER_GAME")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuestionsPerGame = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PRACTICE_QUESTIONS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PracticeQuestions = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("PRACTICE_TIME_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PracticeTimeLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOBBY_POLL_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("ADVANCE_DELAY")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.AdvanceDelay = d
		}
	}

	if cfg.GameServerURL == "" {
		return nil, errors.New("GAME_SERVER_URL is required")
	}
	return cfg, nil
}
