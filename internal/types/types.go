package types

import (
	"errors"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	wire "github.com/DoyleJ11/skill-strike-backend/pkg/types"
)

var ErrUnknownType = errors.New("unknown message type")

// ToCommand maps a client message sent by playerID onto an engine command.
func ToCommand(m wire.ClientMessage, playerID string) (engine.Command, error) {
	cmd := engine.Command{PlayerID: playerID}
	switch engine.CommandType(m.Type) {
	case engine.CmdPlayEffect:
		cmd.Type = engine.CmdPlayEffect
		cmd.CardID = m.CardID
	case engine.CmdPlayAttack:
		cmd.Type = engine.CmdPlayAttack
		cmd.CardID = m.CardID
		cmd.SkillID = m.SkillID
		cmd.DefenderID = m.DefenderID
	case engine.CmdResolveAttack:
		cmd.Type = engine.CmdResolveAttack
		cmd.Success = m.Success
	case engine.CmdEndTurn:
		cmd.Type = engine.CmdEndTurn
	default:
		return engine.Command{}, ErrUnknownType
	}
	return cmd, nil
}

// Snapshot projects s for viewer. An empty viewer sees no hands at all.
func Snapshot(code string, version int, s engine.State, viewer string) *wire.StateSnapshot {
	snap := &wire.StateSnapshot{
		Version:        version,
		GameCode:       code,
		Phase:          string(s.Phase),
		TurnNumber:     s.Turn.Number,
		ActiveTeam:     string(s.Turn.ActiveTeam),
		ActivePlayerID: s.Turn.ActivePlayerID,
		Teams:          make(map[string]wire.TeamView, len(s.Teams)),
		Viewer:         viewer,
		HandSizes:      make(map[string]int, len(s.Hands)),
		Piles:          make(map[string]wire.PileView, len(s.Decks)),
		Winner:         string(s.Winner),
	}

	for t, ts := range s.Teams {
		tv := wire.TeamView{HP: ts.HP, BlockCount: ts.BlockCount}
		for _, p := range ts.Players {
			tv.Players = append(tv.Players, wire.PlayerView{ID: p.ID, Name: p.Name, Seat: p.Seat})
		}
		for _, e := range ts.Effects {
			tv.Effects = append(tv.Effects, wire.EffectView{
				Card:       cardView(e.Card),
				PlacedTurn: e.PlacedTurn,
				Ready:      e.PlacedTurn < s.Turn.Number,
			})
		}
		snap.Teams[string(t)] = tv
	}

	for id, hand := range s.Hands {
		snap.HandSizes[id] = len(hand)
		if id == viewer {
			for _, c := range hand {
				snap.Hand = append(snap.Hand, cardView(c))
			}
		}
	}

	for k, d := range s.Decks {
		pv := wire.PileView{Draw: len(d.Draw), Discard: len(d.Discard)}
		if n := len(d.Discard); n > 0 {
			top := cardView(d.Discard[n-1])
			pv.TopDiscard = &top
		}
		snap.Piles[k] = pv
	}

	if p := s.Pending; p != nil {
		snap.PendingAttack = &wire.PendingAttackView{
			AttackerTeam: string(p.AttackerTeam),
			AttackerID:   p.AttackerID,
			DefenderID:   p.DefenderID,
			Card:         cardView(p.Card),
			Damage:       p.Damage,
			Category:     p.Category,
			SkillID:      p.SkillID,
			CreatedAt:    p.CreatedAt,
		}
	}
	return snap
}

func Events(events []engine.Event) []wire.EventView {
	out := make([]wire.EventView, 0, len(events))
	for _, e := range events {
		out = append(out, wire.EventView{
			Type:     string(e.Type),
			Team:     string(e.Team),
			PlayerID: e.PlayerID,
			CardID:   e.CardID,
			Amount:   e.Amount,
			Turn:     e.Turn,
		})
	}
	return out
}

func cardView(c engine.Card) wire.CardView {
	return wire.CardView{
		ID:          c.ID,
		Type:        string(c.Kind),
		Damage:      c.Damage,
		ShieldValue: c.ShieldValue,
		Category:    c.Category,
		Label:       c.Label,
	}
}
