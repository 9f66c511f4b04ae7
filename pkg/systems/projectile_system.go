package systems

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/types"
	"github.com/gonewx/horde/pkg/utils"
)

// HitCategory 命中目标分类
type HitCategory int

const (
	// HitGeneric 未分类表面
	HitGeneric HitCategory = iota
	// HitCombatant 可受伤的 AI 角色
	HitCombatant
	// HitPlayer 玩家目标
	HitPlayer
	// HitInert 硬表面（混凝土、墙体）
	HitInert
)

// String 返回分类名称（用于日志和指标属性）
func (c HitCategory) String() string {
	switch c {
	case HitCombatant:
		return "combatant"
	case HitPlayer:
		return "player"
	case HitInert:
		return "inert"
	default:
		return "generic"
	}
}

// HitEvent 一次已结算的子弹命中
type HitEvent struct {
	Projectile ecs.EntityID
	Source     ecs.EntityID // 发射者
	Struck     ecs.EntityID // 被击中的碰撞体所属实体（骨骼、根节点或表面）
	Target     ecs.EntityID // 可受伤的祖先实体，没有时为 InvalidEntity
	Category   HitCategory
	Point      mgl64.Vec3
	Normal     mgl64.Vec3
	Direction  mgl64.Vec3
	Force      float64
}

// ProjectileFactory 创建子弹实体（刚体、碰撞体、组件），返回实体 ID
type ProjectileFactory func(owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID

// ProjectileSystem 子弹命中判定与分发
//
// 一颗子弹只结算一次命中：第一次有效命中后立即速度归零、切换为运动学、
// 关闭碰撞体并请求销毁。高速子弹在每个物理帧从上一帧位置向当前位置扫掠射线，
// 取最近的有效命中，避免穿透薄碰撞体。
type ProjectileSystem struct {
	entityManager *ecs.EntityManager
	physics       ports.PhysicsPort
	effects       ports.EffectsPort
	health        *HealthSystem
	ragdoll       *RagdollSystem
	config        config.ProjectileConfig
	factory       ProjectileFactory
	observers     []func(HitEvent)
	logger        zerolog.Logger
}

// NewProjectileSystem 创建子弹系统
func NewProjectileSystem(em *ecs.EntityManager, physics ports.PhysicsPort, effects ports.EffectsPort, health *HealthSystem, ragdoll *RagdollSystem, cfg config.ProjectileConfig) *ProjectileSystem {
	if effects == nil {
		effects = nopEffects{}
	}
	return &ProjectileSystem{
		entityManager: em,
		physics:       physics,
		effects:       effects,
		health:        health,
		ragdoll:       ragdoll,
		config:        cfg,
		logger:        logging.For("ProjectileSystem"),
	}
}

// SetFactory 设置子弹实体工厂
func (s *ProjectileSystem) SetFactory(f ProjectileFactory) {
	s.factory = f
}

// OnHit 注册命中观察者
func (s *ProjectileSystem) OnHit(fn func(HitEvent)) {
	s.observers = append(s.observers, fn)
}

// Fire 发射一颗子弹，实现 Shooter
func (s *ProjectileSystem) Fire(owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID {
	if s.factory == nil {
		s.logger.Warn().Uint64("owner", uint64(owner)).Msg("[ProjectileSystem] no projectile factory, shot discarded")
		return ecs.InvalidEntity
	}
	id := s.factory(owner, origin, rotation, speed)
	s.logger.Debug().Uint64("projectile", uint64(id)).Uint64("owner", uint64(owner)).
		Msg("[ProjectileSystem] projectile fired")
	return id
}

// FixedUpdate 物理步进之前调用：高速子弹射线扫掠
func (s *ProjectileSystem) FixedUpdate() {
	for _, id := range ecs.GetEntitiesWith1[*components.ProjectileComponent](s.entityManager) {
		p, _ := ecs.GetComponent[*components.ProjectileComponent](s.entityManager, id)
		if p.HasHit || p.Body == 0 {
			continue
		}
		cur := s.physics.BodyPosition(p.Body)
		if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			tr.Position = cur
		}
		if s.shouldSweep(p) && s.sweep(id, p, cur) {
			continue
		}
		p.LastPosition = cur
	}
}

// OnCollision 物理碰撞通知
func (s *ProjectileSystem) OnCollision(c ports.Collision) {
	p, ok := ecs.GetComponent[*components.ProjectileComponent](s.entityManager, c.BodyEntity)
	if !ok || p.HasHit || s.ignored(c.BodyEntity, p, c.OtherEntity) {
		return
	}
	// 扫掠得到的更近命中优先于离散碰撞
	if s.shouldSweep(p) && s.sweep(c.BodyEntity, p, s.physics.BodyPosition(p.Body)) {
		return
	}

	dir := utils.SafeNormalize(s.physics.Velocity(p.Body))
	if dir.Len() == 0 {
		dir = utils.SafeNormalize(c.Point.Sub(p.LastPosition))
	}
	s.claim(c.BodyEntity, p, c.OtherEntity, c.OtherTag, c.Point, c.Normal, dir)
}

// ResolveHit 从射线结果中取最近的有效命中
// 忽略发射者及其子实体、其他子弹和子弹自身
func (s *ProjectileSystem) ResolveHit(projectile ecs.EntityID, hits []ports.RaycastHit) (ports.RaycastHit, bool) {
	p, ok := ecs.GetComponent[*components.ProjectileComponent](s.entityManager, projectile)
	if !ok {
		return ports.RaycastHit{}, false
	}
	best := -1
	for i, hit := range hits {
		if s.ignored(projectile, p, hit.Entity) {
			continue
		}
		if best < 0 || hit.Distance < hits[best].Distance {
			best = i
		}
	}
	if best < 0 {
		return ports.RaycastHit{}, false
	}
	return hits[best], true
}

// Dispatch 按目标分类结算命中
func (s *ProjectileSystem) Dispatch(ev HitEvent) {
	switch ev.Category {
	case HitCombatant:
		if s.health == nil || s.health.IsDead(ev.Target) {
			return
		}
		if s.ragdoll != nil {
			s.ragdoll.RegisterHit(ev.Target, ev.Direction, ev.Force, ev.Point)
		}
		s.health.ApplyDamage(ev.Target, s.config.CombatantDamage)
		s.effects.SpawnEffect(ports.EffectBlood, ev.Point, ev.Normal)
	case HitPlayer:
		if s.health == nil || s.health.IsDead(ev.Target) {
			return
		}
		s.health.ApplyDamage(ev.Target, s.config.PlayerDamage)
		s.effects.SpawnEffect(ports.EffectBlood, ev.Point, ev.Normal)
	case HitInert:
		s.effects.SpawnEffect(ports.EffectImpact, ev.Point, ev.Normal)
	default:
		s.effects.SpawnEffect(ports.EffectGeneric, ev.Point, ev.Normal)
	}
}

func (s *ProjectileSystem) shouldSweep(p *components.ProjectileComponent) bool {
	return s.config.UseRaycastSweep && s.physics.Velocity(p.Body).Len() >= s.config.MinSpeedForRaycast
}

// sweep 从上一帧位置到 cur 扫掠，命中时结算并返回 true
func (s *ProjectileSystem) sweep(id ecs.EntityID, p *components.ProjectileComponent, cur mgl64.Vec3) bool {
	seg := cur.Sub(p.LastPosition)
	dist := seg.Len()
	if dist < s.config.MinSweepDistance {
		return false
	}
	hits := s.physics.RaycastAll(p.LastPosition, seg, dist, ports.AllLayers)
	hit, ok := s.ResolveHit(id, hits)
	if !ok {
		return false
	}
	s.claim(id, p, hit.Entity, hit.Tag, hit.Point, hit.Normal, seg.Mul(1/dist))
	return true
}

// claim 认领命中：立即使子弹失效，然后分发
func (s *ProjectileSystem) claim(id ecs.EntityID, p *components.ProjectileComponent, struck ecs.EntityID, tag string, point, normal, dir mgl64.Vec3) {
	if p.HasHit {
		return
	}
	p.HasHit = true
	p.Destroying = true
	s.physics.SetVelocity(p.Body, mgl64.Vec3{})
	s.physics.SetKinematic(p.Body, true)
	if p.Collider != 0 {
		s.physics.SetColliderEnabled(p.Collider, false)
	}
	RequestDestroy(s.entityManager, id, "hit")

	ev := HitEvent{
		Projectile: id,
		Source:     p.Owner,
		Struck:     struck,
		Point:      point,
		Normal:     normal,
		Direction:  dir,
		Force:      s.config.ImpactForce,
	}
	ev.Target, ev.Category = s.classify(struck, tag)

	s.logger.Debug().Uint64("projectile", uint64(id)).Uint64("struck", uint64(struck)).
		Str("category", ev.Category.String()).Msg("[ProjectileSystem] hit resolved")

	s.Dispatch(ev)
	for _, fn := range s.observers {
		fn(ev)
	}
}

// classify 沿父链查找可受伤的祖先，否则按表面分类
func (s *ProjectileSystem) classify(struck ecs.EntityID, tag string) (ecs.EntityID, HitCategory) {
	if target, ok := damageableAncestor(s.entityManager, struck); ok {
		if ecs.HasComponent[*components.CombatantComponent](s.entityManager, target) {
			return target, HitCombatant
		}
		if ecs.HasComponent[*components.PlayerComponent](s.entityManager, target) {
			return target, HitPlayer
		}
	}
	if tag == types.TagConcrete {
		return ecs.InvalidEntity, HitInert
	}
	if surface, ok := ecs.GetComponent[*components.SurfaceComponent](s.entityManager, struck); ok && surface.Category == types.SurfaceInert {
		return ecs.InvalidEntity, HitInert
	}
	return ecs.InvalidEntity, HitGeneric
}

// ignored 发射者及其子实体、其他子弹、子弹自身不参与命中
func (s *ProjectileSystem) ignored(projectile ecs.EntityID, p *components.ProjectileComponent, other ecs.EntityID) bool {
	if other == projectile {
		return true
	}
	if p.Owner != ecs.InvalidEntity && isSelfOrChild(s.entityManager, other, p.Owner) {
		return true
	}
	return ecs.HasComponent[*components.ProjectileComponent](s.entityManager, other)
}

// damageableAncestor 沿父链向上查找带生命值组件的实体
func damageableAncestor(em *ecs.EntityManager, id ecs.EntityID) (ecs.EntityID, bool) {
	for depth := 0; id != ecs.InvalidEntity && depth < 8; depth++ {
		if ecs.HasComponent[*components.HealthComponent](em, id) {
			return id, true
		}
		parent, ok := ecs.GetComponent[*components.ParentComponent](em, id)
		if !ok {
			return ecs.InvalidEntity, false
		}
		id = parent.Parent
	}
	return ecs.InvalidEntity, false
}
