package types

// Client -> Server
//
// play_effect:    {"type":"play_effect","card_id":"..."}
// play_attack:    {"type":"play_attack","card_id":"...","skill_id":"...","defender_id":"..."}
// resolve_attack: {"type":"resolve_attack","success":true}
// end_turn:       {"type":"end_turn"}
//
// Server -> Client
//
// StateSnapshot: full viewer snapshot after join and after every applied action
// Result:        HTTP reply to an applied action (snapshot + events)
// Error:         sent only to the caller whose action was rejected

type ClientMessage struct {
	Type       string `json:"type"`
	CardID     string `json:"card_id,omitempty"`
	SkillID    string `json:"skill_id,omitempty"`
	DefenderID string `json:"defender_id,omitempty"`
	Success    bool   `json:"success,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "StateSnapshot" | "Result" | "Error"
	Version int            `json:"version,omitempty"`
	State   *StateSnapshot `json:"state,omitempty"`
	Events  []EventView    `json:"events,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type EventView struct {
	Type     string `json:"type"`
	Team     string `json:"team,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
	CardID   string `json:"card_id,omitempty"`
	Amount   int    `json:"amount,omitempty"`
	Turn     int    `json:"turn,omitempty"`
}
