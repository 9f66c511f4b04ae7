package game

import (
	"fmt"
	"math/rand"
	"path"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/entities"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/sandbox"
	"github.com/gonewx/horde/pkg/systems"
	"github.com/gonewx/horde/pkg/tasks"
)

// DefaultFixedStep 物理固定步长（秒）
const DefaultFixedStep = 1.0 / 50.0

// Assets 一局所需的全部数据配置
type Assets struct {
	Layout      *config.ArenaLayout
	Combatants  *config.CombatantsConfig
	Ragdoll     config.RagdollConfig
	Projectiles config.ProjectileConfig
	SpawnRules  *config.SpawnRulesConfig
}

// LoadAssets 从嵌入数据目录加载全部配置
// dataDir 通常为 "data"
func LoadAssets(dataDir string) (*Assets, error) {
	layout, err := config.LoadArena(path.Join(dataDir, "arena.yaml"))
	if err != nil {
		return nil, err
	}
	combatants, err := config.LoadCombatants(path.Join(dataDir, "combatants.yaml"))
	if err != nil {
		return nil, err
	}
	ragdoll, err := config.LoadRagdoll(path.Join(dataDir, "ragdoll.yaml"))
	if err != nil {
		return nil, err
	}
	projectiles, err := config.LoadProjectiles(path.Join(dataDir, "projectiles.yaml"))
	if err != nil {
		return nil, err
	}
	rules, err := config.LoadSpawnRules(path.Join(dataDir, "spawn_rules.yaml"))
	if err != nil {
		return nil, err
	}

	for _, a := range rules.Archetypes {
		if _, err := combatants.Archetype(a.Name); err != nil {
			return nil, fmt.Errorf("spawn rules reference %q: %w", a.Name, err)
		}
	}

	return &Assets{
		Layout:      layout,
		Combatants:  combatants,
		Ragdoll:     *ragdoll,
		Projectiles: *projectiles,
		SpawnRules:  rules,
	}, nil
}

// ArenaOptions 运行参数
type ArenaOptions struct {
	Seed      int64
	FixedStep float64 // 0 使用 DefaultFixedStep
	SpawnMode string  // 非空时覆盖刷怪规则中的模式
}

// Arena 持有一局模拟的全部系统，并按固定顺序推进
//
// 每帧顺序：固定步长循环（子弹扫掠 → 物理步进并分发碰撞）→ 导航 → 定时任务 →
// AI 状态机 → 布娃娃 → 伤害区域与道具 → 帧末销毁。
type Arena struct {
	em        *ecs.EntityManager
	scheduler *tasks.Scheduler
	physics   *sandbox.World
	nav       *sandbox.NavMesh
	effects   *sandbox.EffectLog
	rng       *rand.Rand

	perception  *systems.PerceptionSystem
	ragdoll     *systems.RagdollSystem
	health      *systems.HealthSystem
	projectiles *systems.ProjectileSystem
	combatants  *systems.CombatantSystem
	spawner     *systems.SpawnSystem
	lifetime    *systems.LifetimeSystem
	zones       *systems.DamageZoneSystem
	pickups     *systems.PickupSystem

	state       *GameState
	player      ecs.EntityID
	playerAudio *sandbox.AudioSource
	seed        int64

	fixedStep    float64
	accumulator  float64
	physicsSteps int
	started      bool

	onStart    []func()
	onGameOver []func(*GameState)
	logger     zerolog.Logger
}

// NewArena 按配置搭建场地、玩家和全部系统
//
// 参数:
//   - assets: 数据配置
//   - opts: 运行参数
//
// 返回:
//   - *Arena: 尚未开始的场地，调用 Start 开始刷怪
//   - error: 配置无效或玩家创建失败时返回错误
func NewArena(assets *Assets, opts ArenaOptions) (*Arena, error) {
	if assets == nil || assets.Layout == nil || assets.Combatants == nil || assets.SpawnRules == nil {
		return nil, fmt.Errorf("arena assets are incomplete")
	}
	layout := assets.Layout

	rules := *assets.SpawnRules
	switch config.SpawnMode(opts.SpawnMode) {
	case "":
	case config.SpawnModeWaves, config.SpawnModeEndless:
		rules.Mode = config.SpawnMode(opts.SpawnMode)
	default:
		return nil, fmt.Errorf("unknown spawn mode %q", opts.SpawnMode)
	}

	fixedStep := opts.FixedStep
	if fixedStep <= 0 {
		fixedStep = DefaultFixedStep
	}

	a := &Arena{
		em:          ecs.NewEntityManager(),
		scheduler:   tasks.NewScheduler(),
		physics:     sandbox.NewWorld(),
		nav:         sandbox.NewNavMesh(layout.NavMin, layout.NavMax, layout.NavMin.Y()),
		effects:     sandbox.NewEffectLog(),
		rng:         rand.New(rand.NewSource(opts.Seed)),
		state:       NewGameState(),
		playerAudio: sandbox.NewAudioSource(),
		seed:        opts.Seed,
		fixedStep:   fixedStep,
		logger:      logging.For("Arena"),
	}

	a.perception = systems.NewPerceptionSystem(a.em, a.physics)
	a.ragdoll = systems.NewRagdollSystem(a.em, a.scheduler, a.physics, assets.Ragdoll, a.rng)
	a.health = systems.NewHealthSystem(a.em, a.scheduler, a.physics, a.ragdoll, a.rng)
	a.projectiles = systems.NewProjectileSystem(a.em, a.physics, a.effects, a.health, a.ragdoll, assets.Projectiles)
	a.combatants = systems.NewCombatantSystem(a.em, a.scheduler, a.perception, a.projectiles, a.health, a.effects, a.rng)
	a.lifetime = systems.NewLifetimeSystem(a.em, a.scheduler, a.physics, a.nav)
	a.zones = systems.NewDamageZoneSystem(a.em, a.scheduler, a.health)
	a.pickups = systems.NewPickupSystem(a.em, a.health)

	factory := entities.NewCombatantSpawner(a.em, a.physics, a.nav, assets.Combatants, a.ragdoll)
	a.spawner = systems.NewSpawnSystem(a.em, a.scheduler, &rules, factory, a.combatants, a.state, a.rng)

	a.combatants.AttachPhysics(a.physics)
	a.health.AttachCombatants(a.combatants)
	a.health.SetDeathNotifier(a.spawner)
	a.ragdoll.AttachCombatants(a.combatants)
	a.projectiles.SetFactory(entities.ProjectileSpawner(a.em, a.physics, assets.Projectiles))
	a.physics.SubscribeCollisions(a.projectiles.OnCollision)
	a.physics.SubscribeCollisions(a.ragdoll.OnCollision)

	if err := a.build(layout); err != nil {
		return nil, err
	}

	a.health.SetOnPlayerDeath(func(ecs.EntityID) { a.finish(false) })
	a.pickups.SetOnWin(func() { a.finish(true) })

	a.logger.Info().Str("mode", string(rules.Mode)).Int64("seed", opts.Seed).
		Int("spawnPoints", len(layout.SpawnPoints)).Msg("[Arena] arena ready")
	return a, nil
}

// build 创建地面、墙体、刷怪点、玩家、伤害区域、道具和出口
func (a *Arena) build(layout *config.ArenaLayout) error {
	entities.NewSurface(a.em, a.physics, a.nav, layout.Ground)
	for _, w := range layout.Walls {
		entities.NewSurface(a.em, a.physics, a.nav, w)
	}
	for i, p := range layout.SpawnPoints {
		entities.NewSpawnPoint(a.em, fmt.Sprintf("spawn_%d", i), p)
	}

	player, err := entities.NewPlayer(a.em, a.physics, layout.Player, a.playerAudio)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	a.player = player
	a.combatants.SetPlayer(player)
	a.zones.SetPlayer(player)
	a.pickups.SetPlayer(player)

	for _, z := range layout.DamageZones {
		entities.NewDamageZone(a.em, z)
	}
	for _, p := range layout.Pickups {
		entities.NewHealthPickup(a.em, p)
	}
	if layout.WinTrigger != nil {
		entities.NewWinTrigger(a.em, *layout.WinTrigger)
	}
	return nil
}

// OnGameOver 注册游戏结束回调（失败或获胜各只触发一次）
func (a *Arena) OnGameOver(fn func(*GameState)) {
	a.onGameOver = append(a.onGameOver, fn)
}

// Start 开始一局：重置计分并启动刷怪
func (a *Arena) Start() {
	if a.started {
		return
	}
	a.started = true
	a.state.Begin(a.Now())
	for _, fn := range a.onStart {
		fn()
	}
	a.spawner.StartGame()
}

// Tick 推进一帧
func (a *Arena) Tick(dt float64) {
	a.accumulator += dt
	for a.accumulator >= a.fixedStep-1e-9 {
		a.projectiles.FixedUpdate()
		a.physics.Step(a.fixedStep)
		a.accumulator -= a.fixedStep
		a.physicsSteps++
	}

	a.nav.Step(dt)
	a.scheduler.Update(dt)
	a.combatants.Update(dt)
	a.ragdoll.Update(dt)
	a.zones.Update(dt)
	a.pickups.Update(dt)
	a.lifetime.Update(dt)
}

// finish 结束本局并停止刷怪
func (a *Arena) finish(win bool) {
	if !a.state.End(a.Now(), win) {
		return
	}
	a.spawner.GameOver()
	a.logger.Info().Bool("win", win).Int("score", a.state.Score).Int("wave", a.state.Round).
		Int("kills", a.state.Kills).Msg("[Arena] game over")
	for _, fn := range a.onGameOver {
		fn(a.state)
	}
}

// MovePlayer 移动玩家（宿主输入）
func (a *Arena) MovePlayer(pos mgl64.Vec3) {
	if a.health.IsDead(a.player) {
		return
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](a.em, a.player)
	if !ok {
		return
	}
	tr.Position = pos
	if col, ok := ecs.GetComponent[*components.ColliderComponent](a.em, a.player); ok {
		a.physics.SetBodyPosition(col.Body, pos)
	}
}

// PlayerPosition 玩家当前位置
func (a *Arena) PlayerPosition() mgl64.Vec3 {
	tr, ok := ecs.GetComponent[*components.TransformComponent](a.em, a.player)
	if !ok {
		return mgl64.Vec3{}
	}
	return tr.Position
}

// Now 当前模拟时间
func (a *Arena) Now() float64 { return a.scheduler.Now() }

// State 当前游戏状态
func (a *Arena) State() *GameState { return a.state }

// Player 玩家实体
func (a *Arena) Player() ecs.EntityID { return a.player }

// PlayerHealth 玩家生命百分比
func (a *Arena) PlayerHealth() float64 { return a.health.HealthPercentage(a.player) }

// Spawner 刷怪系统
func (a *Arena) Spawner() *systems.SpawnSystem { return a.spawner }

// Health 生命系统
func (a *Arena) Health() *systems.HealthSystem { return a.health }

// Projectiles 子弹系统
func (a *Arena) Projectiles() *systems.ProjectileSystem { return a.projectiles }

// EntityManager 实体管理器
func (a *Arena) EntityManager() *ecs.EntityManager { return a.em }

// PhysicsSteps 已执行的物理固定步数
func (a *Arena) PhysicsSteps() int { return a.physicsSteps }
