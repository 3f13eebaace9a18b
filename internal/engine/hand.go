package engine

// EnsureHandSize tops up playerID's hand to target cards from the draw pile
// of the player's team. When the draw pile runs dry the discard pile is
// shuffled into a new draw pile. It never fails: with both piles empty the
// hand just stays short.
func EnsureHandSize(s *State, playerID string, target int) []Event {
	team, _ := s.TeamOf(playerID)
	key := deckKey(s.Rules, team)

	var events []Event
	drawn := 0
	for len(s.Hands[playerID]) < target {
		c, ok, reshuffled := drawOne(s, key)
		if reshuffled {
			events = append(events, Event{Type: EvtDeckReshuffled, Team: team, Amount: len(s.Decks[key].Draw) + 1})
		}
		if !ok {
			break
		}
		s.Hands[playerID] = append(s.Hands[playerID], c)
		drawn++
	}

	if drawn > 0 {
		events = append(events, Event{Type: EvtHandRefilled, Team: team, PlayerID: playerID, Amount: drawn})
	}
	return events
}

// drawOne takes the top card of the pile under key, recycling the discard
// pile first if needed.
func drawOne(s *State, key string) (c Card, ok bool, reshuffled bool) {
	d := s.Decks[key]
	if len(d.Draw) == 0 && len(d.Discard) > 0 {
		d.Draw = d.Discard
		d.Discard = nil
		shuffleCards(d.Draw, s.Seed, s.Reshuffles)
		s.Reshuffles++
		reshuffled = true
	}
	if len(d.Draw) == 0 {
		s.Decks[key] = d
		return Card{}, false, reshuffled
	}

	c = d.Draw[0]
	d.Draw = d.Draw[1:]
	s.Decks[key] = d
	return c, true, reshuffled
}
