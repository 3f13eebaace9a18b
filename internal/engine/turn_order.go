package engine

import (
	"cmp"
	"slices"
)

type TurnStep struct {
	Team     Team
	PlayerID string
}

// Rotation is the fixed round-robin: A[0], B[0], A[1], B[1], ... by seat,
// running for the larger roster and wrapping the smaller one. Teams alternate
// on every step.
func Rotation(teams map[Team]TeamState) []TurnStep {
	a := bySeat(teams[TeamA].Players)
	b := bySeat(teams[TeamB].Players)
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	rounds := max(len(a), len(b))
	order := make([]TurnStep, 0, rounds*2)
	for i := range rounds {
		order = append(order,
			TurnStep{Team: TeamA, PlayerID: a[i%len(a)].ID},
			TurnStep{Team: TeamB, PlayerID: b[i%len(b)].ID},
		)
	}
	return order
}

func bySeat(players []Player) []Player {
	out := slices.Clone(players)
	slices.SortStableFunc(out, func(x, y Player) int { return cmp.Compare(x.Seat, y.Seat) })
	return out
}

func endTurn(s State, cmd Command) ([]Event, State, error) {
	if s.Pending != nil {
		return nil, s, ErrAttackPending
	}
	if cmd.PlayerID != "" {
		if _, ok := s.TeamOf(cmd.PlayerID); !ok {
			return nil, s, ErrPlayerNotInGame
		}
		if cmd.PlayerID != s.Turn.ActivePlayerID {
			return nil, s, ErrWrongTurn
		}
	}

	ns := s.Clone()
	events := EnsureHandSize(&ns, ns.Turn.ActivePlayerID, ns.Rules.HandSize)
	events = append(events, advanceTurn(&ns))
	return events, ns, nil
}

// advanceTurn moves the rotation cursor by one and bumps the turn number.
func advanceTurn(s *State) Event {
	order := Rotation(s.Teams)
	if len(order) > 0 {
		s.Turn.Cursor = (s.Turn.Cursor + 1) % len(order)
		step := order[s.Turn.Cursor]
		s.Turn.ActiveTeam = step.Team
		s.Turn.ActivePlayerID = step.PlayerID
	}
	s.Turn.Number++
	return Event{Type: EvtTurnAdvanced, Team: s.Turn.ActiveTeam, PlayerID: s.Turn.ActivePlayerID, Turn: s.Turn.Number}
}
