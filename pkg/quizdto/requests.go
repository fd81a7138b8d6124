package quizdto

// Request bodies for the Rush-Maximizer game server API.

type ProbeLMRequest struct {
	LMServer string `json:"lm_server"`
}

type RegisterRequest struct {
	Nickname string `json:"nickname"`
}

type AskAIRequest struct {
	Question     string `json:"question"`
	TargetAnswer string `json:"target_answer"`
	LMServer     string `json:"lm_server,omitempty"`
}

type LobbyJoinRequest struct {
	PlayerID string `json:"player_id"`
	Rule     string `json:"rule,omitempty"`
}

type RoomCreateRequest struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name,omitempty"`
	Password   string `json:"password,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
	Rule       string `json:"rule,omitempty"`
}

type RoomJoinRequest struct {
	PlayerID string `json:"player_id"`
	RoomID   string `json:"room_id"`
	Password string `json:"password,omitempty"`
}

type ScoreSubmitRequest struct {
	PlayerID    string `json:"player_id"`
	Mode        string `json:"mode"`
	Score       int    `json:"score"`
	TimeSeconds int    `json:"time_seconds"`
}
