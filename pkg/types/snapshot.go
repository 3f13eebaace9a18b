// Package types holds the JSON shapes clients receive. It has no dependency
// on the engine so client code can import it directly.
package types

import "time"

// StateSnapshot is one player's view of a game. Only the viewer's own hand is
// listed; other hands are reported by size.
type StateSnapshot struct {
	Version        int                 `json:"version"`
	GameCode       string              `json:"game_code"`
	Phase          string              `json:"phase"` // "idle" | "attack_pending" | "done"
	TurnNumber     int                 `json:"turn_number"`
	ActiveTeam     string              `json:"active_team"` // "a" | "b"
	ActivePlayerID string              `json:"active_player_id"`
	Teams          map[string]TeamView `json:"teams"`
	Viewer         string              `json:"viewer,omitempty"`
	Hand           []CardView          `json:"hand,omitempty"`
	HandSizes      map[string]int      `json:"hand_sizes"`
	Piles          map[string]PileView `json:"piles"` // "shared" or per team
	PendingAttack  *PendingAttackView  `json:"pending_attack,omitempty"`
	Winner         string              `json:"winner,omitempty"`
}

type TeamView struct {
	HP         int          `json:"hp"`
	BlockCount int          `json:"block_count"`
	Players    []PlayerView `json:"players"`
	Effects    []EffectView `json:"effects_in_play"`
}

type PlayerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seat int    `json:"seat"`
}

type CardView struct {
	ID          string `json:"id"`
	Type        string `json:"type"` // "attack" | "shield" | "negate" | "joker"
	Damage      int    `json:"damage,omitempty"`
	ShieldValue int    `json:"shield_value,omitempty"`
	Category    string `json:"category,omitempty"`
	Label       string `json:"label,omitempty"`
}

// EffectView is a defensive card in play. Ready is false on the turn it was
// placed.
type EffectView struct {
	Card       CardView `json:"card"`
	PlacedTurn int      `json:"placed_turn"`
	Ready      bool     `json:"ready"`
}

type PileView struct {
	Draw       int       `json:"draw"`
	Discard    int       `json:"discard"`
	TopDiscard *CardView `json:"top_discard,omitempty"`
}

type PendingAttackView struct {
	AttackerTeam string    `json:"attacker_team"`
	AttackerID   string    `json:"attacker_id"`
	DefenderID   string    `json:"defender_id"`
	Card         CardView  `json:"card"`
	Damage       int       `json:"damage"`
	Category     string    `json:"category,omitempty"`
	SkillID      string    `json:"skill_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
