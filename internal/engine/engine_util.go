package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidSetup = errors.New("invalid game setup")

func DefaultRules() Rules {
	return Rules{
		StartingHP:        30,
		HandSize:          5,
		MaxEffectsInPlay:  3,
		MaxEffectsPerTurn: 2,
		CounterDamage:     3,
		BlocksForCounter:  3,
		DefaultDamage:     5,
	}
}

type Setup struct {
	TeamA []Player
	TeamB []Player
	Cards []Card
	Rules Rules
	Seed  uint64
}

// NewGame seats both rosters (seat = roster index), shuffles the cards with
// the seed, deals a full hand to every player and hands turn 1 to the head of
// the rotation.
func NewGame(setup Setup) (State, error) {
	if len(setup.TeamA) == 0 || len(setup.TeamB) == 0 {
		return State{}, fmt.Errorf("%w: both teams need at least one player", ErrInvalidSetup)
	}

	seen := map[string]bool{}
	seat := func(roster []Player) ([]Player, error) {
		out := make([]Player, len(roster))
		for i, p := range roster {
			if p.ID == "" {
				return nil, fmt.Errorf("%w: player without id", ErrInvalidSetup)
			}
			if seen[p.ID] {
				return nil, fmt.Errorf("%w: duplicate player %q", ErrInvalidSetup, p.ID)
			}
			seen[p.ID] = true
			p.Seat = i
			out[i] = p
		}
		return out, nil
	}
	a, err := seat(setup.TeamA)
	if err != nil {
		return State{}, err
	}
	b, err := seat(setup.TeamB)
	if err != nil {
		return State{}, err
	}

	cards := make([]Card, 0, len(setup.Cards))
	ids := map[string]bool{}
	for _, c := range setup.Cards {
		if c.ID == "" || ids[c.ID] {
			return State{}, fmt.Errorf("%w: card ids must be unique and non-empty", ErrInvalidSetup)
		}
		if !c.Kind.Valid() {
			return State{}, fmt.Errorf("%w: card %q has unknown type %q", ErrInvalidSetup, c.ID, c.Kind)
		}
		ids[c.ID] = true
		cards = append(cards, c)
	}

	rules := setup.Rules
	if rules == (Rules{}) {
		rules = DefaultRules()
	}

	s := State{
		Phase: PhaseIdle,
		Rules: rules,
		Teams: map[Team]TeamState{
			TeamA: {HP: rules.StartingHP, Players: a},
			TeamB: {HP: rules.StartingHP, Players: b},
		},
		Hands: map[string][]Card{},
		Decks: map[string]Deck{},
		Seed:  setup.Seed,
	}

	shuffleCards(cards, s.Seed, s.Reshuffles)
	s.Reshuffles++
	if s.Rules.PerTeamDecks {
		var da, db Deck
		for i, c := range cards {
			if i%2 == 0 {
				da.Draw = append(da.Draw, c)
			} else {
				db.Draw = append(db.Draw, c)
			}
		}
		s.Decks[string(TeamA)] = da
		s.Decks[string(TeamB)] = db
	} else {
		s.Decks[SharedDeck] = Deck{Draw: cards}
	}

	order := Rotation(s.Teams)
	dealOrder := make([]TurnStep, 0, len(a)+len(b))
	dealt := map[string]bool{}
	for _, step := range order {
		if !dealt[step.PlayerID] {
			dealt[step.PlayerID] = true
			dealOrder = append(dealOrder, step)
			s.Hands[step.PlayerID] = []Card{}
		}
	}
	for range s.Rules.HandSize {
		for _, step := range dealOrder {
			if c, ok, _ := drawOne(&s, deckKey(s.Rules, step.Team)); ok {
				s.Hands[step.PlayerID] = append(s.Hands[step.PlayerID], c)
			}
		}
	}

	s.Turn = TurnState{
		Number:         1,
		ActiveTeam:     order[0].Team,
		ActivePlayerID: order[0].PlayerID,
	}
	return s, nil
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
