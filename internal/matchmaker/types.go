package matchmaker

import "github.com/kapu/rush-maximizer-go/pkg/quizdto"

// Request selects the matchmaking path: random queue or private room.
type Request interface{ isRequest() }

// Random queues the player for random matching under a rule
// (classic/speed/challenge).
type Random struct {
	Rule string
}

// Room joins a password-protected private room.
type Room struct {
	RoomID   string
	Password string
}

func (Random) isRequest() {}
func (Room) isRequest()   {}

// Waiting is the live lobby status while no match has formed. Random
// matches carry a queue position; room joins carry player counts.
type Waiting struct {
	Position       int
	CurrentPlayers int
	MaxPlayers     int
}

// Match is a formed game: identity plus the question batch to play.
type Match struct {
	GameID    string
	Rule      string
	Questions []quizdto.Question
}

// Handler receives poll outcomes. Callbacks fire on the poller's goroutine;
// exactly one terminal callback (OnMatched or OnFailed) fires per session,
// and none after Stop.
type Handler struct {
	OnWaiting func(Waiting)
	OnMatched func(Match)
	OnFailed  func(error)
}
