package engine

import (
	"fmt"

	"go.uber.org/multierr"
)

// CardCount is the number of cards across every zone: hands, effects in play,
// draw and discard piles and the pending attack. It never changes over a game.
func CardCount(s State) int {
	n := 0
	for _, hand := range s.Hands {
		n += len(hand)
	}
	for _, ts := range s.Teams {
		n += len(ts.Effects)
	}
	for _, d := range s.Decks {
		n += len(d.Draw) + len(d.Discard)
	}
	if s.Pending != nil {
		n++
	}
	return n
}

// CheckInvariants reports every rule the state breaks.
func CheckInvariants(s State) error {
	var err error
	for _, t := range []Team{TeamA, TeamB} {
		ts, ok := s.Teams[t]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("team %s missing", t))
			continue
		}
		if ts.HP < 0 {
			err = multierr.Append(err, fmt.Errorf("team %s hp %d below zero", t, ts.HP))
		}
		if len(ts.Effects) > s.Rules.MaxEffectsInPlay {
			err = multierr.Append(err, fmt.Errorf("team %s has %d effects in play", t, len(ts.Effects)))
		}
		if ts.BlockCount < 0 || ts.BlockCount >= max(1, s.Rules.BlocksForCounter) {
			err = multierr.Append(err, fmt.Errorf("team %s block count %d out of range", t, ts.BlockCount))
		}
		for _, e := range ts.Effects {
			if !e.Card.Kind.IsEffect() {
				err = multierr.Append(err, fmt.Errorf("team %s has %s card %q in play", t, e.Card.Kind, e.Card.ID))
			}
		}
	}

	switch {
	case s.Pending != nil && s.Phase != PhaseAttackPending:
		err = multierr.Append(err, fmt.Errorf("pending attack in phase %s", s.Phase))
	case s.Pending == nil && s.Phase == PhaseAttackPending:
		err = multierr.Append(err, fmt.Errorf("phase %s without a pending attack", s.Phase))
	}

	seen := map[string]bool{}
	note := func(c Card, where string) {
		if seen[c.ID] {
			err = multierr.Append(err, fmt.Errorf("card %q duplicated (%s)", c.ID, where))
		}
		seen[c.ID] = true
	}
	for id, hand := range s.Hands {
		for _, c := range hand {
			note(c, "hand "+id)
		}
	}
	for t, ts := range s.Teams {
		for _, e := range ts.Effects {
			note(e.Card, "effects "+string(t))
		}
	}
	for k, d := range s.Decks {
		for _, c := range d.Draw {
			note(c, "draw "+k)
		}
		for _, c := range d.Discard {
			note(c, "discard "+k)
		}
	}
	if s.Pending != nil {
		note(s.Pending.Card, "pending attack")
	}
	return err
}
