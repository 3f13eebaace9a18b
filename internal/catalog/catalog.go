// Package catalog turns YAML deck definitions into the cards a game is dealt.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed default_deck.yaml
var defaultDeck []byte

// DeckFile is the top-level YAML structure.
type DeckFile struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry describes one card template and how many copies the deck holds.
type CardEntry struct {
	Type        string `yaml:"type"`
	Label       string `yaml:"label"`
	Category    string `yaml:"category"`
	Damage      int    `yaml:"damage"`
	ShieldValue int    `yaml:"shield_value"`
	Count       int    `yaml:"count"`
}

// Load reads the deck at path, or the built-in deck when path is empty.
func Load(path string) ([]engine.Card, error) {
	if path == "" {
		return Parse(defaultDeck)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands a deck file into individual cards, each with a fresh id.
func Parse(data []byte) ([]engine.Card, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}

	var cards []engine.Card
	for i, entry := range df.Cards {
		kind := engine.CardKind(entry.Type)
		if !kind.Valid() {
			return nil, fmt.Errorf("deck %q entry %d: unknown card type %q", df.Name, i, entry.Type)
		}
		if entry.Count < 0 {
			return nil, fmt.Errorf("deck %q entry %d: negative count", df.Name, i)
		}
		if kind.IsAttack() && entry.Damage < 0 {
			return nil, fmt.Errorf("deck %q entry %d: negative damage", df.Name, i)
		}
		if kind == engine.KindShield && entry.ShieldValue <= 0 {
			return nil, fmt.Errorf("deck %q entry %d: shield needs a positive shield_value", df.Name, i)
		}

		for range entry.Count {
			c := engine.Card{
				ID:       uuid.NewString(),
				Kind:     kind,
				Category: entry.Category,
				Label:    entry.Label,
			}
			switch {
			case kind.IsAttack():
				c.Damage = entry.Damage
			case kind == engine.KindShield:
				c.ShieldValue = entry.ShieldValue
			}
			cards = append(cards, c)
		}
	}

	if len(cards) == 0 {
		return nil, fmt.Errorf("deck %q has no cards", df.Name)
	}
	return cards, nil
}
