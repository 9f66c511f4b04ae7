package game

import (
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/systems"
)

// AttachRecorder 把对局历史写入记录器
// 必须在 Start 之前调用；写库失败只记录日志，不影响模拟
func (a *Arena) AttachRecorder(r *MatchRecorder) {
	a.onStart = append(a.onStart, func() {
		if err := r.BeginSession(string(a.spawner.Mode()), a.seed); err != nil {
			a.logger.Error().Err(err).Msg("[Arena] failed to begin recorded session")
		}
	})
	a.spawner.OnSpawned(r.RecordSpawn)
	a.spawner.OnWaveCompleted(func(wave int) {
		if err := r.RecordWaveCompleted(wave, a.Now()); err != nil {
			a.logger.Error().Err(err).Msg("[Arena] failed to record wave")
		}
	})
	a.spawner.OnCombatantDied(func(id ecs.EntityID) {
		if err := r.RecordDeath(id, a.spawner.Wave(), a.Now()); err != nil {
			a.logger.Error().Err(err).Msg("[Arena] failed to record death")
		}
	})
	a.OnGameOver(func(s *GameState) {
		if err := r.EndSession(s); err != nil {
			a.logger.Error().Err(err).Msg("[Arena] failed to close recorded session")
		}
	})
}

// AttachMetrics 把刷怪、击杀、命中和波次计入指标
func (a *Arena) AttachMetrics(m *Metrics) {
	a.spawner.OnSpawned(func(_ ecs.EntityID, archetype string) {
		m.CombatantSpawned(archetype)
	})
	a.spawner.OnCombatantDied(func(ecs.EntityID) {
		m.CombatantDied()
	})
	a.spawner.OnWaveStarted(func(wave, _ int) {
		m.WaveStarted(wave)
	})
	a.projectiles.OnHit(func(ev systems.HitEvent) {
		m.ProjectileHit(ev.Category.String())
	})
}

// AttachProgress 游戏结束时把结果并入玩家记录
func (a *Arena) AttachProgress(ps *ProgressStore) {
	a.OnGameOver(func(s *GameState) {
		record, err := ps.RecordMatch(s)
		if err != nil {
			a.logger.Error().Err(err).Msg("[Arena] failed to save progress")
			return
		}
		if record {
			a.logger.Info().Int("score", s.Score).Int("wave", s.Round).Msg("[Arena] new personal record")
		}
	})
}
