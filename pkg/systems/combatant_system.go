package systems

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
	"github.com/gonewx/horde/pkg/utils"
)

// 行为任务子分组，进入 Dying 时全部取消
const (
	groupPerception tasks.Group = "behavior.perception"
	groupWait       tasks.Group = "behavior.wait"
	groupAttack     tasks.Group = "behavior.attack"
	groupSeek       tasks.Group = "behavior.seek"
	groupFlash      tasks.Group = "behavior.flash"
	groupSound      tasks.Group = "behavior.sound"
)

var behaviorGroups = []tasks.Group{
	tasks.GroupBehavior,
	groupPerception,
	groupWait,
	groupAttack,
	groupSeek,
	groupFlash,
	groupSound,
}

// 动画参数名
const (
	animSpeed       = "Speed"
	animWalkBlend   = "WalkBlend"
	animIdleBlend   = "IdleBlend"
	animAttackBlend = "AttackBlend"
	animAttack      = "Attack"
	animAttacking   = "Attacking"
	animFire        = "Fire"
	animDeath       = "Death"
	animDie         = "Die"
	animImpact      = "Impact"
)

// movingThreshold 速度比例超过该值视为在移动
const movingThreshold = 0.1

// Shooter 发射子弹
type Shooter interface {
	Fire(owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID
}

// Damager 对实体造成伤害
type Damager interface {
	ApplyDamage(id ecs.EntityID, amount float64) bool
}

// CombatantSystem AI 角色状态机
//
// 每个角色每帧只读取一次目标位置，感知、状态转换和导航目标更新都基于同一份快照。
// 定时行为（感知轮询、攻击序列、待机等待、随机音效、枪口火光）都挂在调度器上，
// 进入 Dying 时一次性取消。
type CombatantSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *tasks.Scheduler
	perception    *PerceptionSystem
	physics       ports.PhysicsPort
	shooter       Shooter
	damager       Damager
	effects       ports.EffectsPort
	rng           *rand.Rand
	logger        zerolog.Logger

	player ecs.EntityID
}

// NewCombatantSystem 创建 AI 状态机系统
func NewCombatantSystem(
	em *ecs.EntityManager,
	scheduler *tasks.Scheduler,
	perception *PerceptionSystem,
	shooter Shooter,
	damager Damager,
	effects ports.EffectsPort,
	rng *rand.Rand,
) *CombatantSystem {
	if effects == nil {
		effects = nopEffects{}
	}
	return &CombatantSystem{
		entityManager: em,
		scheduler:     scheduler,
		perception:    perception,
		shooter:       shooter,
		damager:       damager,
		effects:       effects,
		rng:           rng,
		logger:        logging.For("CombatantSystem"),
	}
}

// AttachPhysics 关联物理世界，根节点刚体每帧跟随导航代理
func (s *CombatantSystem) AttachPhysics(physics ports.PhysicsPort) {
	s.physics = physics
}

// SetPlayer 设置 AI 搜索的目标（玩家）
func (s *CombatantSystem) SetPlayer(id ecs.EntityID) {
	s.player = id
}

// Register 启动角色的行为：初始状态、感知轮询以及随机音效循环
// 由刷怪系统在角色创建后调用
func (s *CombatantSystem) Register(id ecs.EntityID) {
	c, ok := s.combatant(id)
	if !ok {
		return
	}
	s.fillMissingPorts(id, c)

	p := c.Params
	c.Nav.SetSpeed(p.WalkSpeed)

	switch c.Kind {
	case types.CombatantSoldier:
		s.setState(id, c, types.StateRoaming)
	case types.CombatantZombie:
		s.randomizeBlend(c)
		s.zombieChooseInitialBehavior(id, c)
		s.zombieScheduleRandomSound(id)
	}

	s.scheduler.Every(tasks.Key{Owner: id, Group: groupPerception}, p.DetectionDelay, func() {
		s.perceive(id)
	})

	s.logger.Debug().Uint64("entity", uint64(id)).Str("kind", string(c.Kind)).
		Str("state", c.State.String()).Msg("[CombatantSystem] combatant registered")
}

// fillMissingPorts 缺少外部服务时记录警告并换成空实现
func (s *CombatantSystem) fillMissingPorts(id ecs.EntityID, c *components.CombatantComponent) {
	if c.Nav == nil {
		pos := mgl64.Vec3{}
		if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			pos = tr.Position
		}
		c.Nav = &stationaryNav{position: pos}
		s.logger.Warn().Uint64("entity", uint64(id)).Msg("[CombatantSystem] no navigation agent, combatant will stay in place")
	}
	if c.Anim == nil {
		c.Anim = &nopAnimator{enabled: true}
		s.logger.Warn().Uint64("entity", uint64(id)).Msg("[CombatantSystem] no animator assigned")
	}
	if c.Audio == nil {
		c.Audio = nopAudio{}
	}
}

// State 返回角色当前状态
func (s *CombatantSystem) State(id ecs.EntityID) types.CombatantState {
	if c, ok := s.combatant(id); ok {
		return c.State
	}
	return types.StateDying
}

// SetState 外部请求状态转换，已死亡的角色只接受 Dying
func (s *CombatantSystem) SetState(id ecs.EntityID, state types.CombatantState) bool {
	if state == types.StateDying {
		return s.EnterDying(id)
	}
	c, ok := s.combatant(id)
	if !ok {
		return false
	}
	return s.setState(id, c, state)
}

// EnterDying 进入终态：停止导航，清除攻击/火光，取消全部行为任务
// 重复调用返回 false
func (s *CombatantSystem) EnterDying(id ecs.EntityID) bool {
	c, ok := s.combatant(id)
	if !ok || c.IsDying() {
		return false
	}
	prev := c.State
	c.State = types.StateDying

	for _, g := range behaviorGroups {
		s.scheduler.CancelGroup(id, g)
	}

	c.IsAttacking = false
	c.MuzzleFlashActive = false
	c.Target = ecs.InvalidEntity
	if c.Nav != nil {
		c.Nav.SetStopped(true)
		c.Nav.ResetPath()
	}

	s.logger.Debug().Uint64("entity", uint64(id)).Str("from", prev.String()).
		Msg("[CombatantSystem] entering Dying")
	return true
}

// Revive 用于对象池复用：清空战斗状态并重新启动行为
func (s *CombatantSystem) Revive(id ecs.EntityID) {
	c, ok := s.combatant(id)
	if !ok {
		return
	}
	for _, g := range behaviorGroups {
		s.scheduler.CancelGroup(id, g)
	}
	c.State = types.StateIdle
	c.Target = ecs.InvalidEntity
	c.AttackTimer = 0
	c.IsAttacking = false
	c.ImpactDelivered = false
	c.MuzzleFlashActive = false
	c.IsMoving = false
	if c.Nav != nil {
		c.Nav.SetEnabled(true)
		c.Nav.SetStopped(false)
	}
	if c.Anim != nil {
		c.Anim.SetBool(animAttacking, false)
	}
	s.Register(id)
}

// Update 推进所有存活角色的状态机
func (s *CombatantSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith2[*components.CombatantComponent, *components.TransformComponent](s.entityManager)

	for _, id := range entities {
		c, _ := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		if c.IsDying() || c.Nav == nil {
			continue
		}

		tr.Position = c.Nav.Position()
		s.syncRootBody(id, tr)
		if c.AttackTimer > 0 {
			c.AttackTimer = math.Max(0, c.AttackTimer-deltaTime)
		}

		target := s.snapshot(c.Target)
		switch c.Kind {
		case types.CombatantSoldier:
			s.updateSoldier(id, c, tr, target, deltaTime)
		case types.CombatantZombie:
			s.updateZombie(id, c, tr, target)
		}

		s.updateAnimator(c)
	}
}

// TryAttack 攻击唯一入口
// 冷却未结束、攻击进行中、没有目标或已死亡时返回 false 且不产生任何事件
func (s *CombatantSystem) TryAttack(id ecs.EntityID) bool {
	c, ok := s.combatant(id)
	if !ok || c.IsDying() || !c.HasTarget() || c.AttackTimer > 0 || c.IsAttacking {
		return false
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return false
	}
	target := s.snapshot(c.Target)
	if !target.ok {
		return false
	}

	s.setState(id, c, types.StateAttacking)
	switch c.Kind {
	case types.CombatantSoldier:
		s.soldierFire(id, c, tr, target.position)
	case types.CombatantZombie:
		s.zombieStartAttack(id, c, tr, target.position)
	default:
		return false
	}
	return true
}

// OnAttackImpact 动画事件：近战攻击命中时刻
func (s *CombatantSystem) OnAttackImpact(id ecs.EntityID) {
	s.zombieDeliverImpact(id)
}

// perceive 感知轮询
func (s *CombatantSystem) perceive(id ecs.EntityID) {
	c, ok := s.combatant(id)
	if !ok || c.IsDying() {
		return
	}
	switch c.Kind {
	case types.CombatantSoldier:
		s.soldierPerceive(id, c)
	case types.CombatantZombie:
		s.zombiePerceive(id, c)
	}
}

func (s *CombatantSystem) canSee(id ecs.EntityID, c *components.CombatantComponent, target ecs.EntityID) bool {
	if target == ecs.InvalidEntity || s.perception == nil {
		return false
	}
	if !s.snapshot(target).ok {
		return false
	}
	return s.perception.CanSee(id, target, c.Params.EyeHeight, c.Params.DetectRange)
}

// setState 内部状态转换；Dying 之后拒绝任何转换
func (s *CombatantSystem) setState(id ecs.EntityID, c *components.CombatantComponent, state types.CombatantState) bool {
	if c.IsDying() {
		return false
	}
	if c.State == state {
		return true
	}
	prev := c.State
	c.State = state
	if c.Kind == types.CombatantZombie {
		s.randomizeBlend(c)
	}
	s.logger.Debug().Uint64("entity", uint64(id)).Str("from", prev.String()).
		Str("to", state.String()).Msg("[CombatantSystem] state changed")
	return true
}

// randomizeBlend 为当前状态随机选择一个动画变体
func (s *CombatantSystem) randomizeBlend(c *components.CombatantComponent) {
	if c.Anim == nil {
		return
	}
	v := c.Params.AnimationVariants
	switch c.State {
	case types.StateIdle:
		if v.Idle > 0 {
			c.Anim.SetFloat(animIdleBlend, float64(s.rng.Intn(v.Idle)))
		}
	case types.StatePatrolling, types.StateRoaming, types.StateChasing:
		if v.Walk > 0 {
			c.Anim.SetFloat(animWalkBlend, float64(s.rng.Intn(v.Walk)))
		}
	case types.StateAttacking:
		if v.Attack > 0 {
			c.Anim.SetFloat(animAttackBlend, float64(s.rng.Intn(v.Attack)))
		}
	}
}

func (s *CombatantSystem) updateAnimator(c *components.CombatantComponent) {
	speed := c.Nav.Speed()
	pct := 0.0
	if speed > 0 {
		pct = c.Nav.Velocity().Len() / speed
	}
	c.Anim.SetFloat(animSpeed, pct)

	moving := pct > movingThreshold
	if moving && !c.IsMoving {
		c.IsMoving = true
		if c.Kind == types.CombatantZombie {
			s.randomizeBlend(c)
		}
	} else if !moving && c.IsMoving {
		c.IsMoving = false
	}
}

func (s *CombatantSystem) syncRootBody(id ecs.EntityID, tr *components.TransformComponent) {
	if s.physics == nil {
		return
	}
	if col, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, id); ok && col.Body != 0 {
		s.physics.SetBodyPosition(col.Body, tr.Position)
	}
}

// arrived 导航是否已到达当前目的地
func arrived(nav ports.NavigationPort) bool {
	return nav.RemainingDistance() <= nav.StoppingDistance() && !nav.PathPending()
}

// randomPoint 在 center 附近 rangeRadius 范围内寻找可行走的随机点（保持同一高度）
func (s *CombatantSystem) randomPoint(c *components.CombatantComponent, center mgl64.Vec3, rangeRadius float64) (mgl64.Vec3, bool) {
	attempts := c.Params.MaxSampleAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		candidate := center.Add(utils.RandomInsideUnitSphere(s.rng).Mul(rangeRadius))
		candidate[1] = center.Y()
		if p, ok := c.Nav.SampleValidPoint(candidate, c.Params.SampleRadius); ok {
			return p, true
		}
	}
	return mgl64.Vec3{}, false
}

// playRandom 随机播放一个片段
func (s *CombatantSystem) playRandom(c *components.CombatantComponent, clips []string) {
	if len(clips) == 0 || c.Audio == nil {
		return
	}
	c.Audio.PlayOneShot(clips[s.rng.Intn(len(clips))], c.Params.Sounds.Volume)
}

// targetSnapshot 本帧读取的目标位置
type targetSnapshot struct {
	position mgl64.Vec3
	ok       bool
}

// snapshot 读取目标位置；目标已销毁或已死亡时 ok 为 false
func (s *CombatantSystem) snapshot(target ecs.EntityID) targetSnapshot {
	if target == ecs.InvalidEntity || !s.entityManager.Exists(target) || s.entityManager.IsMarkedForDestruction(target) {
		return targetSnapshot{}
	}
	if h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, target); ok && h.Dead {
		return targetSnapshot{}
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, target)
	if !ok {
		return targetSnapshot{}
	}
	return targetSnapshot{position: tr.Position, ok: true}
}

func (s *CombatantSystem) combatant(id ecs.EntityID) (*components.CombatantComponent, bool) {
	return ecs.GetComponent[*components.CombatantComponent](s.entityManager, id)
}
