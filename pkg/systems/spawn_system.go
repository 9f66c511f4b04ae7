package systems

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/tasks"
)

// ErrNoSpawnPoints 场景中没有刷怪点
var ErrNoSpawnPoints = errors.New("no spawn points")

// spawnerOwner 刷怪计时任务的所有者（全局任务，不属于任何实体）
const spawnerOwner = ecs.InvalidEntity

// CombatantFactory 按原型名创建 AI 角色
type CombatantFactory interface {
	CreateCombatant(archetype string, position mgl64.Vec3) (ecs.EntityID, error)
}

// ScoreKeeper 记录得分和波次
type ScoreKeeper interface {
	AddScore(points int)
	AddKill()
	SetRound(round int)
}

// SpawnSystem 刷怪与存活角色登记
//
// 存活登记表只由本系统修改：刷出时加入，收到死亡通知时移除。
// 波次模式下，只有本波刷怪完成并且存活数归零才会进入下一波；
// 无尽模式下，存活数低于上限时定时补充，归零时立即补刷一只。
type SpawnSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *tasks.Scheduler
	rules         *config.SpawnRulesConfig
	factory       CombatantFactory
	combatants    *CombatantSystem
	score         ScoreKeeper
	rng           *rand.Rand
	logger        zerolog.Logger

	mode    config.SpawnMode
	running bool
	live    map[ecs.EntityID]bool

	wave             int
	waveTarget       int
	spawnedInWave    int
	spawningComplete bool

	onSpawned       []func(id ecs.EntityID, archetype string)
	onWaveStarted   []func(wave, target int)
	onWaveCompleted []func(wave int)
	onDied          []func(id ecs.EntityID)
}

// NewSpawnSystem 创建刷怪系统
// combatants 和 score 可以为 nil
func NewSpawnSystem(
	em *ecs.EntityManager,
	scheduler *tasks.Scheduler,
	rules *config.SpawnRulesConfig,
	factory CombatantFactory,
	combatants *CombatantSystem,
	score ScoreKeeper,
	rng *rand.Rand,
) *SpawnSystem {
	return &SpawnSystem{
		entityManager: em,
		scheduler:     scheduler,
		rules:         rules,
		factory:       factory,
		combatants:    combatants,
		score:         score,
		rng:           rng,
		logger:        logging.For("SpawnSystem"),
		mode:          rules.Mode,
		live:          make(map[ecs.EntityID]bool),
	}
}

// OnSpawned 注册刷出回调
func (s *SpawnSystem) OnSpawned(fn func(id ecs.EntityID, archetype string)) {
	s.onSpawned = append(s.onSpawned, fn)
}

// OnWaveStarted 注册波次开始回调
func (s *SpawnSystem) OnWaveStarted(fn func(wave, target int)) {
	s.onWaveStarted = append(s.onWaveStarted, fn)
}

// OnWaveCompleted 注册波次完成回调
func (s *SpawnSystem) OnWaveCompleted(fn func(wave int)) {
	s.onWaveCompleted = append(s.onWaveCompleted, fn)
}

// OnCombatantDied 注册击杀回调
func (s *SpawnSystem) OnCombatantDied(fn func(id ecs.EntityID)) {
	s.onDied = append(s.onDied, fn)
}

// Mode 当前刷怪模式
func (s *SpawnSystem) Mode() config.SpawnMode { return s.mode }

// IsRunning 是否正在刷怪
func (s *SpawnSystem) IsRunning() bool { return s.running }

// LiveCount 存活角色数量
func (s *SpawnSystem) LiveCount() int { return len(s.live) }

// IsLive 角色是否在存活登记表中
func (s *SpawnSystem) IsLive(id ecs.EntityID) bool { return s.live[id] }

// Wave 当前波次（从 1 开始，未开始时为 0）
func (s *SpawnSystem) Wave() int { return s.wave }

// WaveTarget 当前波次的目标刷怪数量
func (s *SpawnSystem) WaveTarget() int { return s.waveTarget }

// SpawnedInWave 当前波次已刷出数量
func (s *SpawnSystem) SpawnedInWave() int { return s.spawnedInWave }

// SpawningComplete 当前波次是否已刷完
func (s *SpawnSystem) SpawningComplete() bool { return s.spawningComplete }

// StartGame 开始刷怪
func (s *SpawnSystem) StartGame() {
	s.scheduler.CancelGroup(spawnerOwner, tasks.GroupSpawner)
	s.running = true
	s.wave = 0

	s.logger.Info().Str("mode", string(s.mode)).Msg("[SpawnSystem] game started")

	switch s.mode {
	case config.SpawnModeEndless:
		s.spawnOne()
		s.scheduler.Every(tasks.Key{Owner: spawnerOwner, Group: tasks.GroupSpawner}, s.rules.Interval, s.endlessTick)
	default:
		s.startWave(1)
	}
}

// StopSpawning 停止所有刷怪计时，已刷出的角色不受影响
func (s *SpawnSystem) StopSpawning() {
	s.scheduler.CancelGroup(spawnerOwner, tasks.GroupSpawner)
	s.running = false
}

// GameOver 停止刷怪，销毁所有存活角色并清空登记表
func (s *SpawnSystem) GameOver() {
	s.StopSpawning()
	for id := range s.live {
		RequestDestroy(s.entityManager, id, "game over")
	}
	s.live = make(map[ecs.EntityID]bool)
	s.logger.Info().Int("wave", s.wave).Msg("[SpawnSystem] game over")
}

// RegisterSpawned 登记外部创建的角色
func (s *SpawnSystem) RegisterSpawned(id ecs.EntityID) {
	s.live[id] = true
}

// NotifyDeath 死亡通知，实现 DeathNotifier
// 每个角色只计分一次；不在登记表中的角色被忽略
func (s *SpawnSystem) NotifyDeath(id ecs.EntityID) {
	if !s.live[id] {
		return
	}
	delete(s.live, id)

	if s.score != nil {
		s.score.AddScore(s.rules.ScorePerKill)
		s.score.AddKill()
	}
	for _, fn := range s.onDied {
		fn(id)
	}

	s.logger.Debug().Uint64("entity", uint64(id)).Int("live", len(s.live)).
		Msg("[SpawnSystem] combatant removed from registry")

	if !s.running {
		return
	}
	switch s.mode {
	case config.SpawnModeEndless:
		if len(s.live) == 0 {
			s.logger.Debug().Msg("[SpawnSystem] arena empty, emergency spawn")
			s.spawnOne()
		}
	default:
		s.checkWaveComplete()
	}
}

func (s *SpawnSystem) startWave(wave int) {
	s.wave = wave
	s.waveTarget = s.rules.WaveTarget(wave)
	s.spawnedInWave = 0
	s.spawningComplete = false

	if s.score != nil {
		s.score.SetRound(wave)
	}
	for _, fn := range s.onWaveStarted {
		fn(wave, s.waveTarget)
	}
	s.logger.Info().Int("wave", wave).Int("target", s.waveTarget).Msg("[SpawnSystem] wave started")

	s.scheduler.Every(tasks.Key{Owner: spawnerOwner, Group: tasks.GroupSpawner}, s.rules.Interval, s.waveTick)
}

func (s *SpawnSystem) waveTick() {
	if s.spawningComplete {
		return
	}
	if err := s.spawnOne(); err != nil {
		if errors.Is(err, ErrNoSpawnPoints) {
			s.logger.Error().Err(err).Msg("[SpawnSystem] cannot continue wave, stopping")
			s.StopSpawning()
		}
		return
	}
	s.spawnedInWave++
	if s.spawnedInWave >= s.waveTarget {
		s.spawningComplete = true
		s.scheduler.CancelGroup(spawnerOwner, tasks.GroupSpawner)
		s.logger.Debug().Int("wave", s.wave).Msg("[SpawnSystem] wave spawning complete")
		s.checkWaveComplete()
	}
}

// checkWaveComplete 刷怪完成且存活数归零时进入下一波
func (s *SpawnSystem) checkWaveComplete() {
	if !s.running || !s.spawningComplete || len(s.live) > 0 {
		return
	}
	completed := s.wave
	for _, fn := range s.onWaveCompleted {
		fn(completed)
	}
	s.logger.Info().Int("wave", completed).Msg("[SpawnSystem] wave completed")
	s.startWave(completed + 1)
}

func (s *SpawnSystem) endlessTick() {
	if len(s.live) < s.rules.EnemyCap {
		if err := s.spawnOne(); errors.Is(err, ErrNoSpawnPoints) {
			s.StopSpawning()
		}
	}
}

// spawnOne 在随机刷怪点创建一个随机原型的角色
func (s *SpawnSystem) spawnOne() error {
	point, err := s.pickSpawnPoint()
	if err != nil {
		s.logger.Warn().Err(err).Msg("[SpawnSystem] spawn skipped")
		return err
	}
	archetype := s.rules.ChooseArchetype(s.rng)

	id, err := s.factory.CreateCombatant(archetype, point)
	if err != nil {
		s.logger.Error().Err(err).Str("archetype", archetype).Msg("[SpawnSystem] failed to create combatant")
		return fmt.Errorf("spawn %s: %w", archetype, err)
	}

	s.live[id] = true
	if s.combatants != nil {
		s.combatants.Register(id)
	}
	for _, fn := range s.onSpawned {
		fn(id, archetype)
	}
	s.logger.Debug().Uint64("entity", uint64(id)).Str("archetype", archetype).
		Msg("[SpawnSystem] combatant spawned")
	return nil
}

func (s *SpawnSystem) pickSpawnPoint() (mgl64.Vec3, error) {
	points := ecs.GetEntitiesWith2[*components.SpawnPointComponent, *components.TransformComponent](s.entityManager)
	if len(points) == 0 {
		return mgl64.Vec3{}, ErrNoSpawnPoints
	}
	tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, points[s.rng.Intn(len(points))])
	return tr.Position, nil
}
