package engine

func playEffect(s State, cmd Command) ([]Event, State, error) {
	if cmd.PlayerID == "" {
		return nil, s, ErrMissingPlayerID
	}
	if cmd.CardID == "" {
		return nil, s, ErrMissingCardID
	}
	team, ok := s.TeamOf(cmd.PlayerID)
	if !ok {
		return nil, s, ErrPlayerNotInGame
	}
	if s.Pending != nil {
		return nil, s, ErrAttackPending
	}
	if s.Turn.ActivePlayerID != cmd.PlayerID {
		return nil, s, ErrWrongTurn
	}

	card, ok := findCard(s.Hands[cmd.PlayerID], cmd.CardID)
	if !ok {
		return nil, s, ErrCardNotInHand
	}
	if !card.Kind.IsEffect() {
		return nil, s, ErrInvalidCardType
	}

	ts := s.Teams[team]
	if len(ts.Effects) >= s.Rules.MaxEffectsInPlay {
		return nil, s, ErrMaxEffects
	}
	played := ts.effectsPlayedOn(s.Turn.Number)
	if played >= s.Rules.MaxEffectsPerTurn {
		return nil, s, ErrMaxEffectsPerTurn
	}

	ns := s.Clone()
	ns.Hands[cmd.PlayerID] = removeCard(ns.Hands[cmd.PlayerID], card.ID)

	ts = ns.Teams[team]
	ts.Effects = append(ts.Effects, Effect{Card: card, PlacedTurn: ns.Turn.Number})
	ts.EffectsPlayed = EffectsPlayed{Turn: ns.Turn.Number, Count: played + 1}
	ns.Teams[team] = ts

	events := []Event{
		{Type: EvtEffectPlayed, Team: team, PlayerID: cmd.PlayerID, CardID: card.ID, Turn: ns.Turn.Number},
	}
	return events, ns, nil
}

// bestDefense picks the effect a hit consumes on turn: any eligible negate
// first, otherwise the eligible shield with the highest value. Ties go to the
// effect placed earliest.
func bestDefense(effects []Effect, turn int) (int, bool) {
	best := -1
	for i, e := range effects {
		if e.PlacedTurn >= turn {
			continue
		}
		switch e.Card.Kind {
		case KindNegate:
			return i, true
		case KindShield:
			if best < 0 || e.Card.ShieldValue > effects[best].Card.ShieldValue {
				best = i
			}
		}
	}
	return best, best >= 0
}

// absorb applies effect e to an incoming hit of damage.
func absorb(e Effect, damage int) int {
	if e.Card.Kind == KindNegate {
		return 0
	}
	return max(0, damage-e.Card.ShieldValue)
}
