package systems

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
)

// DeathNotifier 接收角色死亡通知（刷怪系统）
type DeathNotifier interface {
	NotifyDeath(id ecs.EntityID)
}

// HealthSystem 生命值与死亡流程
//
// 同时服务 AI 角色和玩家目标。死亡只会处理一次：
// Dead 标记保证死亡流程只执行一次，DeathNotified 保证刷怪系统只收到一次通知。
type HealthSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *tasks.Scheduler
	physics       ports.PhysicsPort
	ragdoll       *RagdollSystem
	combatants    *CombatantSystem
	notifier      DeathNotifier
	rng           *rand.Rand
	logger        zerolog.Logger

	onPlayerDeath func(id ecs.EntityID)
}

// NewHealthSystem 创建生命值系统
// ragdoll 可以为 nil（所有角色走动画死亡路径）
func NewHealthSystem(em *ecs.EntityManager, scheduler *tasks.Scheduler, physics ports.PhysicsPort, ragdoll *RagdollSystem, rng *rand.Rand) *HealthSystem {
	return &HealthSystem{
		entityManager: em,
		scheduler:     scheduler,
		physics:       physics,
		ragdoll:       ragdoll,
		rng:           rng,
		logger:        logging.For("HealthSystem"),
	}
}

// AttachCombatants 关联 AI 状态机（两者互相引用，构造后再连接）
func (s *HealthSystem) AttachCombatants(cs *CombatantSystem) {
	s.combatants = cs
}

// SetDeathNotifier 设置死亡通知接收者
func (s *HealthSystem) SetDeathNotifier(n DeathNotifier) {
	s.notifier = n
}

// SetOnPlayerDeath 设置玩家死亡回调（在 gameOverDelay 之后调用）
func (s *HealthSystem) SetOnPlayerDeath(fn func(id ecs.EntityID)) {
	s.onPlayerDeath = fn
}

// ApplyDamage 造成伤害
//
// 参数:
//   - id: 目标实体
//   - amount: 伤害值，必须为正
//
// 返回:
//   - bool: 是否确实造成了伤害（目标已死亡或不可受伤时返回 false）
func (s *HealthSystem) ApplyDamage(id ecs.EntityID, amount float64) bool {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok || h.Dead || amount <= 0 {
		return false
	}

	h.Current = math.Max(0, h.Current-amount)
	s.logger.Debug().Uint64("entity", uint64(id)).Float64("amount", amount).
		Float64("health", h.Current).Msg("[HealthSystem] damage applied")

	if h.Current <= 0 {
		s.Die(id)
		return true
	}
	s.hurt(id, h)
	return true
}

// Heal 回复生命值，不超过上限；已死亡时无效
func (s *HealthSystem) Heal(id ecs.EntityID, amount float64) bool {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok || h.Dead || amount <= 0 {
		return false
	}
	h.Current = math.Min(h.Max, h.Current+amount)
	return true
}

// SetHealth 直接设置生命值上限和当前值；当前值归零会触发死亡
func (s *HealthSystem) SetHealth(id ecs.EntityID, max, current float64) {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok || h.Dead {
		return
	}
	if max > 0 {
		h.Max = max
	}
	h.Current = math.Max(0, math.Min(h.Max, current))
	if h.Current <= 0 {
		s.Die(id)
	}
}

// IsDead 是否已死亡；没有生命值组件的实体视为已死亡
func (s *HealthSystem) IsDead(id ecs.EntityID) bool {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	return !ok || h.Dead
}

// IsAtFullHealth 是否满血
func (s *HealthSystem) IsAtFullHealth(id ecs.EntityID) bool {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	return ok && h.IsAtFullHealth()
}

// HealthPercentage 生命值百分比 [0, 1]
func (s *HealthSystem) HealthPercentage(id ecs.EntityID) float64 {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok {
		return 0
	}
	return h.Percentage()
}

// Die 进入死亡流程，可重复调用
func (s *HealthSystem) Die(id ecs.EntityID) {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok || h.Dead {
		return
	}
	h.Dead = true
	h.Current = 0

	c, isCombatant := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id)
	if isCombatant && !h.DeathNotified {
		h.DeathNotified = true
		if s.notifier != nil {
			s.notifier.NotifyDeath(id)
		}
	}

	if isCombatant {
		s.combatantDeath(id, c, h)
		return
	}
	if _, isPlayer := ecs.GetComponent[*components.PlayerComponent](s.entityManager, id); isPlayer {
		s.playerDeath(id, h)
		return
	}
	RequestDestroy(s.entityManager, id, "died")
}

// OnDeathAnimationComplete 动画事件：死亡动画播放完毕（非布娃娃路径）
func (s *HealthSystem) OnDeathAnimationComplete(id ecs.EntityID) {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok || !h.Dead {
		return
	}
	if s.ragdoll != nil && s.ragdoll.IsActive(id) {
		return
	}
	if h.CleanupTask != 0 {
		s.scheduler.Cancel(tasks.TaskID(h.CleanupTask))
		h.CleanupTask = 0
	}
	RequestDestroy(s.entityManager, id, "death animation complete")
}

// Reset 对象池复用：清除死亡标记、恢复生命值、关闭布娃娃、重新启动行为
func (s *HealthSystem) Reset(id ecs.EntityID) {
	h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id)
	if !ok {
		return
	}
	h.Dead = false
	h.DeathNotified = false
	h.DeathEffectPlayed = false
	h.Current = h.Max
	h.HurtReadyAt = 0
	h.CleanupTask = 0
	s.scheduler.CancelGroup(id, tasks.GroupCleanup)

	if col, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, id); ok && col.Collider != 0 {
		s.physics.SetColliderEnabled(col.Collider, true)
	}
	if s.ragdoll != nil {
		s.ragdoll.Deactivate(id)
	}

	c, ok := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id)
	if !ok {
		return
	}
	if c.Anim != nil {
		c.Anim.SetBool(animDeath, false)
	}
	if c.Audio != nil {
		c.Audio.Stop()
	}
	if s.combatants != nil {
		s.combatants.Revive(id)
	}
}

// hurt 受击反馈（音效和受击动画），受 hurtCooldown 限制
func (s *HealthSystem) hurt(id ecs.EntityID, h *components.HealthComponent) {
	now := s.scheduler.Now()
	if now < h.HurtReadyAt {
		return
	}
	h.HurtReadyAt = now + h.HurtCooldown

	if c, ok := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id); ok {
		s.combatantHurt(id, c)
		return
	}
	if p, ok := ecs.GetComponent[*components.PlayerComponent](s.entityManager, id); ok && p.Audio != nil && h.HurtSound != "" {
		p.Audio.PlayOneShot(h.HurtSound, 1)
	}
}

func (s *HealthSystem) combatantHurt(id ecs.EntityID, c *components.CombatantComponent) {
	p := c.Params

	if c.Audio != nil && len(p.Sounds.Hurt) > 0 && s.rng.Float64() < p.HurtSoundChance {
		c.Audio.PlayOneShot(p.Sounds.Hurt[s.rng.Intn(len(p.Sounds.Hurt))], p.Sounds.Volume)
	}

	// 攻击中不打断攻击动画
	if c.Anim == nil || c.State == types.StateAttacking {
		return
	}
	if c.Anim.HasParameter(animImpact) {
		c.Anim.SetTrigger(animImpact)
		return
	}
	if len(p.ImpactAnimations) == 0 {
		return
	}
	layer := c.Anim.LayerIndex(p.ImpactLayer)
	if layer < 0 {
		s.logger.Warn().Uint64("entity", uint64(id)).Str("layer", p.ImpactLayer).
			Msg("[HealthSystem] impact layer not found, impact animations disabled")
		return
	}
	anim := p.ImpactAnimations[s.rng.Intn(len(p.ImpactAnimations))]
	c.Anim.PlayState(anim, layer, p.ImpactBlendTime)
}

// combatantDeath AI 角色死亡：状态机进入 Dying，播放死亡音效，
// 延迟关闭根碰撞体，然后交给布娃娃或动画死亡路径
func (s *HealthSystem) combatantDeath(id ecs.EntityID, c *components.CombatantComponent, h *components.HealthComponent) {
	p := c.Params

	if s.combatants != nil {
		s.combatants.EnterDying(id)
	} else {
		c.State = types.StateDying
	}

	if c.Audio != nil {
		c.Audio.Stop()
		if !h.DeathEffectPlayed && len(p.Sounds.Death) > 0 {
			c.Audio.PlayOneShot(p.Sounds.Death[s.rng.Intn(len(p.Sounds.Death))], p.Sounds.Volume)
		}
	}
	h.DeathEffectPlayed = true

	if col, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, id); ok && col.Collider != 0 {
		collider := col.Collider
		s.scheduler.After(tasks.Key{Owner: id, Group: tasks.GroupCleanup}, p.CollisionDisableDelay, func() {
			s.physics.SetColliderEnabled(collider, false)
		})
	}

	s.logger.Info().Uint64("entity", uint64(id)).Str("archetype", c.Archetype).
		Msg("[HealthSystem] combatant died")

	if p.UseRagdoll && s.ragdoll != nil && s.ragdoll.Has(id) {
		s.ragdoll.OnDeath(id)
		return
	}

	if c.Anim != nil {
		c.Anim.SetBool(animDeath, true)
		c.Anim.SetTrigger(animDie)
	}
	task := s.scheduler.After(tasks.Key{Owner: id, Group: tasks.GroupCleanup}, p.DeathCleanupDelay, func() {
		s.logger.Warn().Uint64("entity", uint64(id)).
			Msg("[HealthSystem] death animation did not complete, removing combatant")
		RequestDestroy(s.entityManager, id, "death cleanup timeout")
	})
	h.CleanupTask = uint64(task)
}

func (s *HealthSystem) playerDeath(id ecs.EntityID, h *components.HealthComponent) {
	p, _ := ecs.GetComponent[*components.PlayerComponent](s.entityManager, id)
	if p.Audio != nil && h.DeathSound != "" && !h.DeathEffectPlayed {
		p.Audio.PlayOneShot(h.DeathSound, 1)
	}
	h.DeathEffectPlayed = true

	s.logger.Info().Uint64("entity", uint64(id)).Msg("[HealthSystem] player died")

	if s.onPlayerDeath == nil {
		return
	}
	s.scheduler.After(tasks.Key{Owner: id, Group: tasks.GroupGame}, p.GameOverDelay, func() {
		s.onPlayerDeath(id)
	})
}
