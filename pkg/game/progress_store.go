package game

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gonewx/horde/pkg/logging"
)

// Progress 跨局保存的玩家记录
type Progress struct {
	BestWave   int `yaml:"bestWave"`   // 到达过的最高波次
	HighScore  int `yaml:"highScore"`  // 最高得分
	TotalKills int `yaml:"totalKills"` // 累计击杀
	Matches    int `yaml:"matches"`    // 已完成的局数
	Wins       int `yaml:"wins"`       // 获胜次数
}

// 存储路径常量
const (
	progressObject   = "progress"
	progressProperty = "records"
)

// ProgressStore 玩家记录存储
// gdataManager 为 nil 时只保存在内存中（降级模式）
type ProgressStore struct {
	gdataManager *gdata.Manager
	progress     *Progress
	logger       zerolog.Logger
}

// OpenProgressStore 按应用名打开 gdata 存储
// 打开失败时返回降级模式的存储和错误，调用方可以继续使用
func OpenProgressStore(appName string) (*ProgressStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return NewProgressStore(nil), fmt.Errorf("failed to open save data %q: %w", appName, err)
	}
	return NewProgressStore(m), nil
}

// NewProgressStore 创建记录存储并尝试加载已保存的记录
//
// 参数:
//   - gdataManager: gdata 跨平台存储管理器，可为 nil
func NewProgressStore(gdataManager *gdata.Manager) *ProgressStore {
	ps := &ProgressStore{
		gdataManager: gdataManager,
		progress:     &Progress{},
		logger:       logging.For("ProgressStore"),
	}
	if err := ps.Load(); err != nil {
		ps.logger.Warn().Err(err).Msg("[ProgressStore] failed to load progress, using empty records")
	}
	return ps
}

// Load 从 gdata 加载记录
// 不存在时使用空记录
func (ps *ProgressStore) Load() error {
	if ps.gdataManager == nil {
		return nil
	}
	if !ps.gdataManager.ObjectPropExists(progressObject, progressProperty) {
		ps.progress = &Progress{}
		return nil
	}

	data, err := ps.gdataManager.LoadObjectProp(progressObject, progressProperty)
	if err != nil {
		ps.progress = &Progress{}
		return fmt.Errorf("failed to load progress: %w", err)
	}

	var loaded Progress
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		ps.progress = &Progress{}
		return fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	ps.progress = &loaded
	return nil
}

// Save 保存记录到 gdata
// 降级模式下直接返回 nil
func (ps *ProgressStore) Save() error {
	if ps.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(ps.progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := ps.gdataManager.SaveObjectProp(progressObject, progressProperty, data); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	ps.logger.Debug().Msg("[ProgressStore] progress saved")
	return nil
}

// Progress 返回当前记录
func (ps *ProgressStore) Progress() Progress {
	return *ps.progress
}

// RecordMatch 把一局的结果合并进记录并保存
//
// 返回:
//   - bool: 是否刷新了最高分或最高波次
//   - error: 保存失败时返回错误（内存中的记录已更新）
func (ps *ProgressStore) RecordMatch(state *GameState) (bool, error) {
	p := ps.progress
	record := false
	if state.Score > p.HighScore {
		p.HighScore = state.Score
		record = true
	}
	if state.Round > p.BestWave {
		p.BestWave = state.Round
		record = true
	}
	p.TotalKills += state.Kills
	p.Matches++
	if state.IsWin {
		p.Wins++
	}

	ps.logger.Info().Int("score", state.Score).Int("wave", state.Round).Bool("record", record).
		Msg("[ProgressStore] match recorded")
	return record, ps.Save()
}
