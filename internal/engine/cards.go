package engine

import "math/rand/v2"

type CardKind string

const (
	KindAttack CardKind = "attack"
	KindShield CardKind = "shield"
	KindNegate CardKind = "negate"
	KindJoker  CardKind = "joker"
)

func (k CardKind) Valid() bool {
	switch k {
	case KindAttack, KindShield, KindNegate, KindJoker:
		return true
	}
	return false
}

// IsAttack is true for cards that can be played with play_attack. Jokers
// resolve exactly like attacks.
func (k CardKind) IsAttack() bool { return k == KindAttack || k == KindJoker }

func (k CardKind) IsEffect() bool { return k == KindShield || k == KindNegate }

// Card is immutable once dealt. Damage is only meaningful for attack and
// joker cards, ShieldValue only for shields. Category is the skill category
// used to flavor attacks.
type Card struct {
	ID          string   `json:"id"`
	Kind        CardKind `json:"type"`
	Damage      int      `json:"damage,omitempty"`
	ShieldValue int      `json:"shield_value,omitempty"`
	Category    string   `json:"category,omitempty"`
	Label       string   `json:"label,omitempty"`
}

// AttackDamage is the damage this card stages. An unset (zero) damage falls
// back to def; the result is never below 1.
func (c Card) AttackDamage(def int) int {
	d := c.Damage
	if d <= 0 {
		d = def
	}
	return max(1, d)
}

type Deck struct {
	Draw    []Card `json:"draw"`
	Discard []Card `json:"discard"`
}

// SharedDeck is the Decks key used when both teams draw from one pile.
const SharedDeck = "shared"

func deckKey(r Rules, t Team) string {
	if r.PerTeamDecks && t.Valid() {
		return string(t)
	}
	return SharedDeck
}

// DeckFor returns the piles team t draws from and discards to.
func (s State) DeckFor(t Team) Deck {
	return s.Decks[deckKey(s.Rules, t)]
}

func discard(s *State, t Team, cards ...Card) {
	key := deckKey(s.Rules, t)
	d := s.Decks[key]
	d.Discard = append(d.Discard, cards...)
	s.Decks[key] = d
}

func findCard(hand []Card, id string) (Card, bool) {
	for _, c := range hand {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// removeCard returns hand without the card id, leaving the input untouched.
func removeCard(hand []Card, id string) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func shuffleCards(cards []Card, seed, stream uint64) {
	r := rand.New(rand.NewPCG(seed, stream))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}
