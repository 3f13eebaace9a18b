package engine

import "slices"

func playAttack(s State, cmd Command) ([]Event, State, error) {
	if s.Pending != nil {
		return nil, s, ErrAttackPending
	}
	if cmd.PlayerID == "" {
		return nil, s, ErrMissingPlayerID
	}
	if cmd.CardID == "" {
		return nil, s, ErrMissingCardID
	}
	attacker, team, ok := s.player(cmd.PlayerID)
	if !ok {
		return nil, s, ErrPlayerNotInGame
	}
	if s.Turn.ActivePlayerID != cmd.PlayerID {
		return nil, s, ErrWrongTurn
	}

	card, ok := findCard(s.Hands[cmd.PlayerID], cmd.CardID)
	if !ok {
		return nil, s, ErrCardNotInHand
	}
	if !card.Kind.IsAttack() {
		return nil, s, ErrInvalidCardType
	}

	defenderID, err := selectDefender(s, team, attacker, cmd.DefenderID)
	if err != nil {
		return nil, s, err
	}

	ns := s.Clone()
	ns.Hands[cmd.PlayerID] = removeCard(ns.Hands[cmd.PlayerID], card.ID)
	ns.Pending = &PendingAttack{
		AttackerTeam: team,
		AttackerID:   cmd.PlayerID,
		DefenderID:   defenderID,
		Card:         card,
		Damage:       card.AttackDamage(s.Rules.DefaultDamage),
		Category:     card.Category,
		SkillID:      cmd.SkillID,
		CreatedAt:    cmd.At,
	}
	ns.Phase = PhaseAttackPending

	events := []Event{
		{Type: EvtAttackPlayed, Team: team, PlayerID: cmd.PlayerID, CardID: card.ID, Amount: ns.Pending.Damage, Turn: ns.Turn.Number},
	}
	return events, ns, nil
}

// selectDefender honors an explicit target on the opposing team, otherwise
// mirrors the attacker's seat and falls back to the opponent's first player.
func selectDefender(s State, team Team, attacker Player, requested string) (string, error) {
	opponents := s.Teams[team.Opponent()].Players
	if requested != "" {
		if !slices.ContainsFunc(opponents, func(p Player) bool { return p.ID == requested }) {
			return "", ErrInvalidDefender
		}
		return requested, nil
	}
	if len(opponents) == 0 {
		return "", ErrInvalidDefender
	}
	for _, p := range opponents {
		if p.Seat == attacker.Seat {
			return p.ID, nil
		}
	}
	return opponents[0].ID, nil
}

func resolveAttack(s State, cmd Command) ([]Event, State, error) {
	if s.Pending == nil {
		return nil, s, ErrNoPendingAttack
	}
	pending := *s.Pending
	defTeam := pending.AttackerTeam.Opponent()

	if cmd.PlayerID != "" {
		team, ok := s.TeamOf(cmd.PlayerID)
		if !ok {
			return nil, s, ErrPlayerNotInGame
		}
		if team != defTeam {
			return nil, s, ErrNotDefender
		}
	}

	ns := s.Clone()
	var events []Event

	if cmd.Success {
		events = block(&ns, pending)
	} else {
		events = hit(&ns, pending)
	}

	discard(&ns, pending.AttackerTeam, pending.Card)
	ns.Pending = nil
	ns.Phase = PhaseIdle

	return completeIfOver(&ns, events), ns, nil
}

// block records a successful block. Every BlocksForCounter-th consecutive
// block deals CounterDamage back to the attacking team and resets the streak.
func block(s *State, pending PendingAttack) []Event {
	defTeam := pending.AttackerTeam.Opponent()
	dt := s.Teams[defTeam]
	dt.BlockCount++

	events := []Event{
		{Type: EvtAttackBlocked, Team: defTeam, PlayerID: pending.DefenderID, CardID: pending.Card.ID, Amount: dt.BlockCount, Turn: s.Turn.Number},
	}

	if dt.BlockCount >= s.Rules.BlocksForCounter {
		at := s.Teams[pending.AttackerTeam]
		at.HP = max(0, at.HP-s.Rules.CounterDamage)
		s.Teams[pending.AttackerTeam] = at
		dt.BlockCount = 0
		events = append(events, Event{Type: EvtCounterDamage, Team: pending.AttackerTeam, Amount: s.Rules.CounterDamage, Turn: s.Turn.Number})
	}
	s.Teams[defTeam] = dt
	return events
}

// hit applies the pending damage to the defending team after its best
// eligible effect has absorbed what it can.
func hit(s *State, pending PendingAttack) []Event {
	defTeam := pending.AttackerTeam.Opponent()
	dt := s.Teams[defTeam]
	damage := pending.Damage

	var events []Event
	if i, ok := bestDefense(dt.Effects, s.Turn.Number); ok {
		e := dt.Effects[i]
		dt.Effects = slices.Delete(dt.Effects, i, i+1)
		damage = absorb(e, damage)
		discard(s, defTeam, e.Card)
		events = append(events, Event{Type: EvtEffectConsumed, Team: defTeam, CardID: e.Card.ID, Amount: pending.Damage - damage, Turn: s.Turn.Number})
	}

	dt.HP = max(0, dt.HP-damage)
	dt.BlockCount = 0
	s.Teams[defTeam] = dt

	return append(events, Event{Type: EvtDamageApplied, Team: defTeam, PlayerID: pending.DefenderID, CardID: pending.Card.ID, Amount: damage, Turn: s.Turn.Number})
}
