package game

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
)

// MatchSession 一局游戏
type MatchSession struct {
	ID        uint `gorm:"primaryKey"`
	StartedAt time.Time
	EndedAt   *time.Time
	Mode      string `gorm:"size:16"`
	Seed      int64
	FinalWave int
	Score     int
	Kills     int
	Won       bool
	Duration  float64 // 模拟时间（秒）
}

// WaveRecord 一次波次完成
type WaveRecord struct {
	ID        uint `gorm:"primaryKey"`
	SessionID uint `gorm:"index"`
	Wave      int
	SimTime   float64
}

// DeathRecord 一次击杀
type DeathRecord struct {
	ID        uint `gorm:"primaryKey"`
	SessionID uint `gorm:"index"`
	Entity    uint64
	Archetype string `gorm:"size:32"`
	Wave      int
	SimTime   float64
}

// recorderModels 需要迁移的表
var recorderModels = []any{&MatchSession{}, &WaveRecord{}, &DeathRecord{}}

// MatchRecorder 把对局历史写入 SQLite
type MatchRecorder struct {
	db         *gorm.DB
	session    *MatchSession
	archetypes map[ecs.EntityID]string
	now        func() time.Time
	logger     zerolog.Logger
}

// OpenMatchRecorder 打开（或创建）记录库
//
// 参数:
//   - path: SQLite 文件路径，空表示内存库
//
// 返回:
//   - *MatchRecorder: 已完成表迁移的记录器
//   - error: 打开或迁移失败时返回错误
func OpenMatchRecorder(path string) (*MatchRecorder, error) {
	log := logging.For("MatchRecorder")

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open match database: %w", err)
	}

	// 内存库每个连接都是独立的数据库
	if path == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(recorderModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate match tables: %w", err)
	}

	if path == "" {
		log.Info().Msg("[MatchRecorder] using in-memory SQLite DB")
	} else {
		log.Info().Str("path", path).Msg("[MatchRecorder] using local SQLite DB")
	}

	return &MatchRecorder{
		db:         db,
		archetypes: make(map[ecs.EntityID]string),
		now:        time.Now,
		logger:     log,
	}, nil
}

// BeginSession 开始记录新的一局
func (r *MatchRecorder) BeginSession(mode string, seed int64) error {
	session := &MatchSession{
		StartedAt: r.now(),
		Mode:      mode,
		Seed:      seed,
	}
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	r.session = session
	r.archetypes = make(map[ecs.EntityID]string)
	r.logger.Debug().Uint("session", session.ID).Msg("[MatchRecorder] session started")
	return nil
}

// SessionID 当前会话 ID，没有进行中的会话时为 0
func (r *MatchRecorder) SessionID() uint {
	if r.session == nil {
		return 0
	}
	return r.session.ID
}

// RecordSpawn 记住角色原型，击杀记录时使用（不写库）
func (r *MatchRecorder) RecordSpawn(id ecs.EntityID, archetype string) {
	r.archetypes[id] = archetype
}

// RecordWaveCompleted 写入一次波次完成
func (r *MatchRecorder) RecordWaveCompleted(wave int, simTime float64) error {
	if r.session == nil {
		return nil
	}
	rec := &WaveRecord{SessionID: r.session.ID, Wave: wave, SimTime: simTime}
	if err := r.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record wave %d: %w", wave, err)
	}
	return nil
}

// RecordDeath 写入一次击杀
func (r *MatchRecorder) RecordDeath(id ecs.EntityID, wave int, simTime float64) error {
	if r.session == nil {
		return nil
	}
	rec := &DeathRecord{
		SessionID: r.session.ID,
		Entity:    uint64(id),
		Archetype: r.archetypes[id],
		Wave:      wave,
		SimTime:   simTime,
	}
	delete(r.archetypes, id)
	if err := r.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record death of %d: %w", id, err)
	}
	return nil
}

// EndSession 用最终状态结束当前会话
func (r *MatchRecorder) EndSession(state *GameState) error {
	if r.session == nil {
		return nil
	}
	ended := r.now()
	r.session.EndedAt = &ended
	r.session.FinalWave = state.Round
	r.session.Score = state.Score
	r.session.Kills = state.Kills
	r.session.Won = state.IsWin
	r.session.Duration = state.EndTime - state.StartTime

	if err := r.db.Save(r.session).Error; err != nil {
		return fmt.Errorf("failed to close session %d: %w", r.session.ID, err)
	}
	r.logger.Info().Uint("session", r.session.ID).Int("score", state.Score).
		Msg("[MatchRecorder] session closed")
	r.session = nil
	return nil
}

// Sessions 按开始顺序返回所有会话
func (r *MatchRecorder) Sessions() ([]MatchSession, error) {
	var sessions []MatchSession
	if err := r.db.Order("id").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Deaths 返回某局的击杀记录
func (r *MatchRecorder) Deaths(sessionID uint) ([]DeathRecord, error) {
	var deaths []DeathRecord
	if err := r.db.Where("session_id = ?", sessionID).Order("id").Find(&deaths).Error; err != nil {
		return nil, fmt.Errorf("failed to list deaths: %w", err)
	}
	return deaths, nil
}

// Waves 返回某局的波次记录
func (r *MatchRecorder) Waves(sessionID uint) ([]WaveRecord, error) {
	var waves []WaveRecord
	if err := r.db.Where("session_id = ?", sessionID).Order("id").Find(&waves).Error; err != nil {
		return nil, fmt.Errorf("failed to list waves: %w", err)
	}
	return waves, nil
}

// Close 关闭数据库连接
func (r *MatchRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
