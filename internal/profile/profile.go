package profile

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Profile is the locally persisted player identity. The server assigns the
// player id once at registration; keeping it lets a returning player reuse
// their leaderboard identity instead of re-registering on every launch.
type Profile struct {
	PlayerID  string    `json:"player_id"`
	Nickname  string    `json:"nickname"`
	LMServer  string    `json:"lm_server,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameRecord is one finished game kept in the local history ring.
type GameRecord struct {
	Mode     string    `json:"mode"`
	Score    int       `json:"score"`
	Correct  int       `json:"correct"`
	Total    int       `json:"total"`
	Accuracy int       `json:"accuracy"`
	Elapsed  int       `json:"elapsed"`
	PlayedAt time.Time `json:"played_at"`
}

// Store persists profiles keyed by nickname plus a bounded per-player game
// history. Load returns (nil, nil) for an unknown nickname.
type Store interface {
	Load(ctx context.Context, nickname string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, nickname string) error
	AppendHistory(ctx context.Context, playerID string, rec GameRecord) error
	History(ctx context.Context, playerID string, n int) ([]GameRecord, error)
}

// historyCap bounds the per-player history ring in every backend.
const historyCap = 50

// MemoryStore is the fallback backend when no Redis is configured. Profiles
// last for the process lifetime only.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
	history  map[string][]GameRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
		history:  make(map[string][]GameRecord),
	}
}

func (s *MemoryStore) Load(_ context.Context, nickname string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[normalize(nickname)]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.UpdatedAt = time.Now()
	s.profiles[normalize(p.Nickname)] = cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, normalize(nickname))
	return nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, playerID string, rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append([]GameRecord{rec}, s.history[playerID]...)
	if len(h) > historyCap {
		h = h[:historyCap]
	}
	s.history[playerID] = h
	return nil
}

func (s *MemoryStore) History(_ context.Context, playerID string, n int) ([]GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history[playerID]
	if n > 0 && len(h) > n {
		h = h[:n]
	}
	out := make([]GameRecord, len(h))
	copy(out, h)
	return out, nil
}

func normalize(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}
