package session

import (
	"strings"

	"github.com/kapu/rush-maximizer-go/pkg/quizdto"
)

// Question is one quiz entry: the set of answer strings that count as
// correct when the AI's reply contains one of them. In vs mode the server
// keeps the answers to itself and the slice is empty.
type Question struct {
	ID      any
	Prompt  string
	Answers []string
}

// QuestionSet is fixed at game start and never mutated during a game.
type QuestionSet []Question

// MatchesReply reports whether the AI reply contains any accepted answer,
// case-insensitively. An empty reply or an empty answer set never matches.
func (q Question) MatchesReply(reply string) bool {
	if reply == "" || len(q.Answers) == 0 {
		return false
	}
	lower := strings.ToLower(reply)
	for _, ans := range q.Answers {
		if ans == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(ans)) {
			return true
		}
	}
	return false
}

// LeaksAnswer reports whether the player's query text itself contains an
// accepted answer. Used to reject queries before they reach the AI.
func (q Question) LeaksAnswer(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, ans := range q.Answers {
		if ans == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(ans)) {
			return true
		}
	}
	return false
}

// PrimaryAnswer is the ground truth forwarded to the AI judge.
func (q Question) PrimaryAnswer() string {
	if len(q.Answers) == 0 {
		return ""
	}
	return q.Answers[0]
}

// QuestionsFromDTO converts a fetched batch into the session representation.
func QuestionsFromDTO(in []quizdto.Question) QuestionSet {
	out := make(QuestionSet, 0, len(in))
	for _, q := range in {
		out = append(out, Question{ID: q.ID, Prompt: q.Prompt, Answers: q.Answers})
	}
	return out
}
