package quizdto

// Response bodies for the Rush-Maximizer game server API. Every body may
// carry an `error` field instead of its success shape; the gateway checks it
// before decoding into these types.

type StatusResponse struct {
	ServerID       string `json:"server_id"`
	QuestionsCount int    `json:"questions_count,omitempty"`
}

type ProbeLMResponse struct {
	OK      bool   `json:"ok"`
	Checked string `json:"checked,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RegisterResponse struct {
	PlayerID string `json:"player_id"`
}

// Question is one entry of a fetched batch. Answers is empty in multiplayer
// batches: correctness is arbitrated by the server there.
type Question struct {
	ID      any      `json:"id,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
	Answers []string `json:"answers,omitempty"`
}

type QuestionsResponse struct {
	Questions []Question `json:"questions"`
}

type AskAIResponse struct {
	AIResponse    string `json:"ai_response"`
	Reasoning     string `json:"reasoning,omitempty"`
	Valid         *bool  `json:"valid,omitempty"`
	InvalidReason string `json:"invalid_reason,omitempty"`
}

// LobbyResponse is shared by /lobby/join and /room/join: either a waiting
// status or a formed match carrying the game identity and question batch.
type LobbyResponse struct {
	Waiting        bool       `json:"waiting,omitempty"`
	Position       int        `json:"position,omitempty"`
	CurrentPlayers int        `json:"current_players,omitempty"`
	MaxPlayers     int        `json:"max_players,omitempty"`
	GameID         string     `json:"game_id,omitempty"`
	Players        []string   `json:"players,omitempty"`
	Questions      []Question `json:"questions,omitempty"`
	Rule           string     `json:"rule,omitempty"`
}

type RoomCreateResponse struct {
	RoomID string `json:"room_id"`
}

type ScoreEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
	Time   int    `json:"time,omitempty"`
}

type TopScoresResponse struct {
	Top []ScoreEntry `json:"top"`
}

type ServerStatsResponse struct {
	ActivePlayers        int `json:"active_players"`
	PlayersWaitingRandom int `json:"players_waiting_random"`
	ActiveGames          int `json:"active_games,omitempty"`
	ActiveRooms          int `json:"active_rooms,omitempty"`
}
