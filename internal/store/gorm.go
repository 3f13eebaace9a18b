package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/logging"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type gameRow struct {
	Code      string `gorm:"primaryKey;size:16"`
	Version   int    `gorm:"not null"`
	State     []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (gameRow) TableName() string { return "games" }

// Gorm stores each game as one jsonb row in postgres.
type Gorm struct {
	db     *gorm.DB
	logger *zap.Logger
}

func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&gameRow{}); err != nil {
		return nil, fmt.Errorf("migrate games: %w", err)
	}
	logger = logging.OrNop(logger)
	logger.Info("postgres store ready")
	return &Gorm{db: db, logger: logger}, nil
}

func (g *Gorm) Create(ctx context.Context, code string, state engine.State) error {
	data, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", code, err)
	}
	err = g.db.WithContext(ctx).Create(&gameRow{Code: code, Version: 0, State: data}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("insert game %s: %w", code, err)
	}
	return nil
}

func (g *Gorm) Load(ctx context.Context, code string) (Record, error) {
	var row gameRow
	err := g.db.WithContext(ctx).First(&row, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load game %s: %w", code, err)
	}

	state, err := decodeState(row.State)
	if err != nil {
		return Record{}, fmt.Errorf("decode game %s: %w", code, err)
	}
	return Record{Code: row.Code, Version: row.Version, State: state, UpdatedAt: row.UpdatedAt}, nil
}

func (g *Gorm) Save(ctx context.Context, code string, version int, state engine.State) error {
	data, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", code, err)
	}

	res := g.db.WithContext(ctx).
		Model(&gameRow{}).
		Where("code = ? AND version = ?", code, version-1).
		Updates(map[string]any{"version": version, "state": data, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("save game %s: %w", code, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := g.db.WithContext(ctx).Model(&gameRow{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return fmt.Errorf("save game %s: %w", code, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	g.logger.Warn("stale game write", zap.String("game", code), zap.Int("version", version))
	return ErrVersionConflict
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// encodeState and decodeState define the jsonb form of a game.
func encodeState(s engine.State) ([]byte, error) {
	return json.Marshal(s)
}

func decodeState(data []byte) (engine.State, error) {
	var s engine.State
	err := json.Unmarshal(data, &s)
	return s, err
}
