package session

// Mode selects the scoring and timing rules for a game.
type Mode string

const (
	ModeSolo     Mode = "solo"
	ModeRTA      Mode = "rta"
	ModePractice Mode = "practice"
	ModeVS       Mode = "vs"
)

// State is the single source of truth for one game. It carries the question
// set, cursor, score, counters and timer bookkeeping. State is not
// concurrency-safe on its own: callers mutate it under their own lock, on a
// single logical thread of control.
type State struct {
	Mode      Mode
	Questions QuestionSet
	Cursor    int

	Score    int
	Correct  int
	Attempts int

	TimeRemaining    int
	InitialTimeLimit int

	// GameID is the multiplayer game identity; empty in solo/practice.
	GameID string
}

// Reset replaces all counters and the question set. There is no cross-game
// carryover: a new game always begins from a fresh state.
func (s *State) Reset(mode Mode, questions QuestionSet, timeLimit int) {
	s.Mode = mode
	s.Questions = questions
	s.Cursor = 0
	s.Score = 0
	s.Correct = 0
	s.Attempts = 0
	s.TimeRemaining = timeLimit
	s.InitialTimeLimit = timeLimit
	s.GameID = ""
}

// Advance moves the cursor forward by exactly one and reports whether the
// set is now exhausted. The cursor never moves past len(Questions).
func (s *State) Advance() (exhausted bool) {
	if s.Cursor < len(s.Questions) {
		s.Cursor++
	}
	return s.Cursor >= len(s.Questions)
}

// Exhausted reports whether every question has been consumed.
func (s *State) Exhausted() bool { return s.Cursor >= len(s.Questions) }

// Current returns the question under the cursor, or false when exhausted.
func (s *State) Current() (Question, bool) {
	if s.Exhausted() {
		return Question{}, false
	}
	return s.Questions[s.Cursor], true
}

// ApplyScoreDelta adjusts the running score, clamped at a floor of zero
// regardless of delta magnitude.
func (s *State) ApplyScoreDelta(delta int) {
	s.Score += delta
	if s.Score < 0 {
		s.Score = 0
	}
}

// RecordAttempt counts one submitted query and, when correct, one hit.
func (s *State) RecordAttempt(correct bool) {
	s.Attempts++
	if correct {
		s.Correct++
	}
}

// Tick decrements the remaining time by one second and returns it. It is a
// no-op below zero.
func (s *State) Tick() int {
	if s.TimeRemaining > 0 {
		s.TimeRemaining--
	}
	return s.TimeRemaining
}

// Elapsed is the seconds spent so far; zero for untimed games.
func (s *State) Elapsed() int {
	if s.InitialTimeLimit <= 0 {
		return 0
	}
	return s.InitialTimeLimit - s.TimeRemaining
}

// Accuracy is round(Correct/len(Questions)*100), zero when the set is empty.
func (s *State) Accuracy() int {
	total := len(s.Questions)
	if total == 0 {
		return 0
	}
	return (s.Correct*100 + total/2) / total
}
