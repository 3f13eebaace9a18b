package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Addr        string        `env:"ADDR" envDefault:":8080"`
	DatabaseURL string        `env:"DATABASE_URL"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"json"`
	AuthSecret  string        `env:"AUTH_SECRET"`
	AuthTTL     time.Duration `env:"AUTH_TTL" envDefault:"24h"`
	DeckFile    string        `env:"DECK_FILE"`

	StartingHP        int  `env:"STARTING_HP" envDefault:"30"`
	HandSize          int  `env:"HAND_SIZE" envDefault:"5"`
	MaxEffectsInPlay  int  `env:"MAX_EFFECTS_IN_PLAY" envDefault:"3"`
	MaxEffectsPerTurn int  `env:"MAX_EFFECTS_PER_TURN" envDefault:"2"`
	CounterDamage     int  `env:"COUNTER_DAMAGE" envDefault:"3"`
	BlocksForCounter  int  `env:"BLOCKS_FOR_COUNTER" envDefault:"3"`
	DefaultDamage     int  `env:"DEFAULT_ATTACK_DAMAGE" envDefault:"5"`
	PerTeamDecks      bool `env:"PER_TEAM_DECKS" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var err error
	positive := func(name string, v int) {
		if v <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	positive("STARTING_HP", c.StartingHP)
	positive("HAND_SIZE", c.HandSize)
	positive("MAX_EFFECTS_IN_PLAY", c.MaxEffectsInPlay)
	positive("MAX_EFFECTS_PER_TURN", c.MaxEffectsPerTurn)
	positive("BLOCKS_FOR_COUNTER", c.BlocksForCounter)
	positive("DEFAULT_ATTACK_DAMAGE", c.DefaultDamage)
	if c.CounterDamage < 0 {
		err = multierr.Append(err, fmt.Errorf("COUNTER_DAMAGE must not be negative, got %d", c.CounterDamage))
	}
	if c.AuthSecret != "" && c.AuthTTL <= 0 {
		err = multierr.Append(err, fmt.Errorf("AUTH_TTL must be positive, got %s", c.AuthTTL))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	return err
}

func (c Config) Rules() engine.Rules {
	return engine.Rules{
		StartingHP:        c.StartingHP,
		HandSize:          c.HandSize,
		MaxEffectsInPlay:  c.MaxEffectsInPlay,
		MaxEffectsPerTurn: c.MaxEffectsPerTurn,
		CounterDamage:     c.CounterDamage,
		BlocksForCounter:  c.BlocksForCounter,
		DefaultDamage:     c.DefaultDamage,
		PerTeamDecks:      c.PerTeamDecks,
	}
}
