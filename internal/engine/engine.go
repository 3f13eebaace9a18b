package engine

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrRejected is wrapped by every rule violation Apply returns, so callers can
// tell a refused action from an infrastructure failure.
var ErrRejected = errors.New("action rejected")

var (
	ErrMissingPlayerID    = fmt.Errorf("%w: missing player id", ErrRejected)
	ErrMissingCardID      = fmt.Errorf("%w: missing card id", ErrRejected)
	ErrPlayerNotInGame    = fmt.Errorf("%w: player not in game", ErrRejected)
	ErrWrongTurn          = fmt.Errorf("%w: not your turn", ErrRejected)
	ErrCardNotInHand      = fmt.Errorf("%w: card not in hand", ErrRejected)
	ErrInvalidCardType    = fmt.Errorf("%w: invalid card type", ErrRejected)
	ErrMaxEffects         = fmt.Errorf("%w: max effects in play reached", ErrRejected)
	ErrMaxEffectsPerTurn  = fmt.Errorf("%w: max effects per turn reached", ErrRejected)
	ErrAttackPending      = fmt.Errorf("%w: attack already pending", ErrRejected)
	ErrNoPendingAttack    = fmt.Errorf("%w: no pending attack", ErrRejected)
	ErrInvalidDefender    = fmt.Errorf("%w: defender not on opposing team", ErrRejected)
	ErrNotDefender        = fmt.Errorf("%w: only the defending team may resolve", ErrRejected)
	ErrGameOver           = fmt.Errorf("%w: game already completed", ErrRejected)
	ErrUnsupportedCommand = fmt.Errorf("%w: unsupported command", ErrRejected)
)

type Team string

const (
	TeamA Team = "a"
	TeamB Team = "b"
)

// Opponent returns the other side of the table.
func (t Team) Opponent() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

func (t Team) Valid() bool { return t == TeamA || t == TeamB }

type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAttackPending Phase = "attack_pending"
	PhaseDone          Phase = "done"
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seat int    `json:"seat"`
}

// Effect is a defensive card waiting in front of a team. It may only be
// consumed on a turn strictly after PlacedTurn.
type Effect struct {
	Card       Card `json:"card"`
	PlacedTurn int  `json:"placed_turn"`
}

// EffectsPlayed counts effects a team placed during Turn.
type EffectsPlayed struct {
	Turn  int `json:"turn"`
	Count int `json:"count"`
}

type TeamState struct {
	HP            int           `json:"hp"`
	Players       []Player      `json:"players"`
	Effects       []Effect      `json:"effects_in_play"`
	BlockCount    int           `json:"block_count"`
	EffectsPlayed EffectsPlayed `json:"effects_played"`
}

func (ts TeamState) effectsPlayedOn(turn int) int {
	if ts.EffectsPlayed.Turn != turn {
		return 0
	}
	return ts.EffectsPlayed.Count
}

type PendingAttack struct {
	AttackerTeam Team      `json:"attacker_team"`
	AttackerID   string    `json:"attacker_id"`
	DefenderID   string    `json:"defender_id"`
	Card         Card      `json:"card"`
	Damage       int       `json:"damage"`
	Category     string    `json:"category,omitempty"`
	SkillID      string    `json:"skill_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type TurnState struct {
	Number         int    `json:"turn_number"`
	ActiveTeam     Team   `json:"active_team"`
	ActivePlayerID string `json:"active_player_id"`
	Cursor         int    `json:"cursor"`
}

type Rules struct {
	StartingHP        int  `json:"starting_hp"`
	HandSize          int  `json:"hand_size"`
	MaxEffectsInPlay  int  `json:"max_effects_in_play"`
	MaxEffectsPerTurn int  `json:"max_effects_per_turn"`
	CounterDamage     int  `json:"counter_damage"`
	BlocksForCounter  int  `json:"blocks_for_counter"`
	DefaultDamage     int  `json:"default_damage"`
	PerTeamDecks      bool `json:"per_team_decks"`
}

type State struct {
	Phase      Phase              `json:"phase"`
	Turn       TurnState          `json:"turn"`
	Teams      map[Team]TeamState `json:"teams"`
	Hands      map[string][]Card  `json:"hands"`
	Decks      map[string]Deck    `json:"decks"`
	Pending    *PendingAttack     `json:"pending_attack,omitempty"`
	Rules      Rules              `json:"rules"`
	Winner     Team               `json:"winner,omitempty"`
	Seed       uint64             `json:"seed"`
	Reshuffles uint64             `json:"reshuffles"`
}

type CommandType string

const (
	CmdPlayEffect    CommandType = "play_effect"
	CmdPlayAttack    CommandType = "play_attack"
	CmdResolveAttack CommandType = "resolve_attack"
	CmdEndTurn       CommandType = "end_turn"
)

/*
	CmdPlayEffect    -> EvtEffectPlayed
	CmdPlayAttack    -> EvtAttackPlayed
	CmdResolveAttack -> EvtAttackBlocked [-> EvtCounterDamage]
	                 or [EvtEffectConsumed ->] EvtDamageApplied
	                 [-> EvtGameCompleted]
	CmdEndTurn       -> [EvtDeckReshuffled ->] EvtHandRefilled -> EvtTurnAdvanced
*/

// Command is one client action. PlayerID is the caller as established by the
// identity layer; At is stamped by whoever owns the game so Apply stays pure.
type Command struct {
	Type       CommandType
	PlayerID   string
	CardID     string
	SkillID    string
	DefenderID string
	Success    bool
	At         time.Time
}

type EventType string

const (
	EvtEffectPlayed   EventType = "EffectPlayed"
	EvtAttackPlayed   EventType = "AttackPlayed"
	EvtAttackBlocked  EventType = "AttackBlocked"
	EvtCounterDamage  EventType = "CounterDamage"
	EvtEffectConsumed EventType = "EffectConsumed"
	EvtDamageApplied  EventType = "DamageApplied"
	EvtDeckReshuffled EventType = "DeckReshuffled"
	EvtHandRefilled   EventType = "HandRefilled"
	EvtTurnAdvanced   EventType = "TurnAdvanced"
	EvtGameCompleted  EventType = "GameCompleted"
)

type Event struct {
	Type     EventType `json:"type"`
	Team     Team      `json:"team,omitempty"`
	PlayerID string    `json:"player_id,omitempty"`
	CardID   string    `json:"card_id,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Turn     int       `json:"turn,omitempty"`
}

// Apply validates cmd against s and returns the resulting state. On error the
// returned state is s itself; nothing reachable from s is modified either way.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseDone {
		return nil, s, ErrGameOver
	}

	switch cmd.Type {
	case CmdPlayEffect:
		return playEffect(s, cmd)
	case CmdPlayAttack:
		return playAttack(s, cmd)
	case CmdResolveAttack:
		return resolveAttack(s, cmd)
	case CmdEndTurn:
		return endTurn(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	ns := s
	ns.Teams = make(map[Team]TeamState, len(s.Teams))
	for t, ts := range s.Teams {
		ts.Players = slices.Clone(ts.Players)
		ts.Effects = slices.Clone(ts.Effects)
		ns.Teams[t] = ts
	}
	ns.Hands = make(map[string][]Card, len(s.Hands))
	for id, hand := range s.Hands {
		ns.Hands[id] = slices.Clone(hand)
	}
	ns.Decks = make(map[string]Deck, len(s.Decks))
	for k, d := range s.Decks {
		ns.Decks[k] = Deck{Draw: slices.Clone(d.Draw), Discard: slices.Clone(d.Discard)}
	}
	if s.Pending != nil {
		p := *s.Pending
		ns.Pending = &p
	}
	return ns
}

// TeamOf reports which team playerID sits on.
func (s State) TeamOf(playerID string) (Team, bool) {
	for _, t := range []Team{TeamA, TeamB} {
		for _, p := range s.Teams[t].Players {
			if p.ID == playerID {
				return t, true
			}
		}
	}
	return "", false
}

func (s State) player(playerID string) (Player, Team, bool) {
	for _, t := range []Team{TeamA, TeamB} {
		for _, p := range s.Teams[t].Players {
			if p.ID == playerID {
				return p, t, true
			}
		}
	}
	return Player{}, "", false
}

// completeIfOver moves the game to PhaseDone once a team has no hp left.
func completeIfOver(s *State, events []Event) []Event {
	for _, t := range []Team{TeamA, TeamB} {
		if s.Teams[t].HP == 0 {
			s.Phase = PhaseDone
			s.Winner = t.Opponent()
			return append(events, Event{Type: EvtGameCompleted, Team: s.Winner, Turn: s.Turn.Number})
		}
	}
	return events
}
