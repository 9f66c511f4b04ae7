package systems

import (
	"math"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
	"github.com/gonewx/horde/pkg/utils"
)

// 布娃娃冲击常量
const (
	defaultBackwardUp = 0.5 // 无命中方向时向后倒的抬升分量
	spinTorqueScale   = 0.1
	flailUpwardBias   = 0.7
	flailTorqueScale  = 0.5
)

// RagdollSystem 布娃娃死亡序列
//
// 激活后的时间线（以物理帧 fixedFrame 为单位）：
//
//	0                      关闭动画与导航，骨骼切换为自由刚体，开始局部慢动作
//	2 帧                   戏剧性冻结（可选）
//	2 帧 + freezeDelay     解冻，再过 1 帧施加主冲击，再过 1 帧施加四肢甩动
//	peakDelay              顶点冻结，freezeAtPeak 之后以 0.7 倍速度恢复，开始阻力插值
//	cleanup - fade         开始淡出，淡出结束后销毁角色
//
// 所有阶段任务挂在 ragdoll 分组，Deactivate 会一次取消并恢复基线。
type RagdollSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *tasks.Scheduler
	physics       ports.PhysicsPort
	combatants    *CombatantSystem
	config        config.RagdollConfig
	easing        utils.EasingFunc
	rng           *rand.Rand
	logger        zerolog.Logger
}

// NewRagdollSystem 创建布娃娃系统
func NewRagdollSystem(em *ecs.EntityManager, scheduler *tasks.Scheduler, physics ports.PhysicsPort, cfg config.RagdollConfig, rng *rand.Rand) *RagdollSystem {
	s := &RagdollSystem{
		entityManager: em,
		scheduler:     scheduler,
		physics:       physics,
		config:        cfg,
		rng:           rng,
		logger:        logging.For("RagdollSystem"),
	}
	easing, ok := utils.EasingByName(cfg.SlowMotionEasing)
	if !ok {
		s.logger.Warn().Str("easing", cfg.SlowMotionEasing).Msg("[RagdollSystem] unknown easing, using inOutCubic")
		easing = utils.EaseInOutCubic
	}
	s.easing = easing
	return s
}

// AttachCombatants 关联 AI 状态机，激活时让角色进入 Dying
func (s *RagdollSystem) AttachCombatants(cs *CombatantSystem) {
	s.combatants = cs
}

// Setup 初始化角色的布娃娃：解析主体骨骼，放大质量，记录基线物理属性
// 由实体工厂在创建骨骼刚体之后调用
func (s *RagdollSystem) Setup(id ecs.EntityID) {
	r, ok := s.ragdoll(id)
	if !ok {
		return
	}
	s.resolveMainBone(id, r)

	for i := range r.Bones {
		b := &r.Bones[i]
		if b.HasBody() {
			if s.config.EnableExaggeratedPhysics {
				s.physics.SetMass(b.Body, s.physics.Mass(b.Body)*s.config.ExaggerationMultiplier)
			}
			b.BaseMass = s.physics.Mass(b.Body)
			b.BaseLinearDrag, b.BaseAngularDrag = s.physics.Drag(b.Body)
			b.BaseKinematic = s.physics.IsKinematic(b.Body)
		}
		if b.Collider != 0 {
			b.BaseCollider = s.physics.ColliderEnabled(b.Collider)
		}
	}

	r.FadeAlpha = 1
	if c, ok := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id); ok && c.Anim != nil {
		r.BaseAnimatorEnabled = c.Anim.Enabled()
	}
}

// resolveMainBone 主体骨骼：标记的骨骼 → 名称匹配 → 第一根带刚体的骨骼
func (s *RagdollSystem) resolveMainBone(id ecs.EntityID, r *components.RagdollComponent) {
	if r.MainBone() >= 0 {
		return
	}
	for i := range r.Bones {
		r.Bones[i].IsMain = false
	}

	for i := range r.Bones {
		if !r.Bones[i].HasBody() {
			continue
		}
		name := strings.ToLower(r.Bones[i].Name)
		for _, candidate := range s.config.MainBodyNames {
			if strings.Contains(name, strings.ToLower(candidate)) {
				r.Bones[i].IsMain = true
				return
			}
		}
	}
	for i := range r.Bones {
		if r.Bones[i].HasBody() {
			r.Bones[i].IsMain = true
			return
		}
	}
	s.logger.Warn().Uint64("entity", uint64(id)).Msg("[RagdollSystem] no main body bone found, main force disabled")
}

// Has 实体是否带有可用的布娃娃
func (s *RagdollSystem) Has(id ecs.EntityID) bool {
	r, ok := s.ragdoll(id)
	return ok && len(r.Bones) > 0
}

// IsActive 布娃娃是否已激活
func (s *RagdollSystem) IsActive(id ecs.EntityID) bool {
	r, ok := s.ragdoll(id)
	return ok && r.Active
}

// IsInSlowMotion 是否处于局部慢动作
func (s *RagdollSystem) IsInSlowMotion(id ecs.EntityID) bool {
	r, ok := s.ragdoll(id)
	return ok && r.InSlowMotion
}

// FadeAlpha 当前淡出透明度，1 为完全不透明
func (s *RagdollSystem) FadeAlpha(id ecs.EntityID) float64 {
	r, ok := s.ragdoll(id)
	if !ok {
		return 1
	}
	return r.FadeAlpha
}

// RegisterHit 记录最近一次命中，死亡时用作冲击方向和力度
// 已死亡或布娃娃已激活时忽略
func (s *RagdollSystem) RegisterHit(id ecs.EntityID, direction mgl64.Vec3, force float64, point mgl64.Vec3) {
	r, ok := s.ragdoll(id)
	if !ok || r.Active {
		return
	}
	if h, ok := ecs.GetComponent[*components.HealthComponent](s.entityManager, id); ok && h.Dead {
		return
	}
	r.LastHitDirection = direction
	r.LastHitForce = force
	r.LastHitPoint = point
}

// OnDeath 死亡入口：使用最近一次命中信息激活布娃娃
// 没有命中记录时使用随机方向和最小力度
func (s *RagdollSystem) OnDeath(id ecs.EntityID) {
	r, ok := s.ragdoll(id)
	if !ok {
		return
	}
	dir := r.LastHitDirection
	if dir.Len() < 1e-9 {
		dir = utils.RandomOnUnitSphere(s.rng)
	}
	force := r.LastHitForce
	if force <= 0 {
		force = s.config.MinimumDeathForce
	}
	s.Activate(id, dir, force, r.LastHitPoint)
}

// Activate 激活布娃娃，重复调用无效
//
// 参数:
//   - id: 角色实体
//   - direction: 冲击方向（会被归一化）
//   - force: 冲击力度，限制在 [minimumDeathForce, maximumDeathForce]
//   - point: 命中点
//
// 返回:
//   - bool: 本次调用是否真正激活
func (s *RagdollSystem) Activate(id ecs.EntityID, direction mgl64.Vec3, force float64, point mgl64.Vec3) bool {
	r, ok := s.ragdoll(id)
	if !ok || r.Active {
		return false
	}
	cfg := s.config

	r.Active = true
	r.ActiveDirection = utils.SafeNormalize(direction)
	r.ActiveForce = math.Max(cfg.MinimumDeathForce, math.Min(cfg.MaximumDeathForce, force))
	r.LastHitPoint = point
	r.FadeAlpha = 1

	s.disableControl(id)
	s.enablePhysics(r)

	s.logger.Info().Uint64("entity", uint64(id)).Float64("force", r.ActiveForce).
		Msg("[RagdollSystem] ragdoll activated")

	key := tasks.Key{Owner: id, Group: tasks.GroupRagdoll}
	frame := cfg.FixedFrame

	forceAt := 2 * frame
	if cfg.EnableDramaticFreeze {
		s.scheduler.After(key, forceAt, func() { s.withRagdoll(id, s.freeze) })
		s.scheduler.After(key, forceAt+cfg.DramaticFreezeDelay, func() {
			s.withRagdoll(id, func(r *components.RagdollComponent) { s.unfreeze(r, 1) })
		})
		forceAt += cfg.DramaticFreezeDelay + frame
	}
	s.scheduler.After(key, forceAt, func() { s.applyMainForce(id) })
	if cfg.EnableLimbFlailing {
		s.scheduler.After(key, forceAt+frame, func() { s.withRagdoll(id, s.flail) })
	}

	if cfg.UseLocalSlowMotion {
		s.startSlowMotion(r)
		if cfg.FreezeAtPeakDuration > 0 {
			s.scheduler.After(key, cfg.PeakDelay, func() { s.withRagdoll(id, s.freeze) })
			s.scheduler.After(key, cfg.PeakDelay+cfg.FreezeAtPeakDuration, func() {
				s.withRagdoll(id, func(r *components.RagdollComponent) {
					s.unfreeze(r, cfg.RestoreVelocityFactor)
					s.beginDragBlend(r, cfg.SlowMotionDuration-cfg.PeakDelay-cfg.FreezeAtPeakDuration)
				})
			})
		} else {
			s.beginDragBlend(r, cfg.SlowMotionDuration)
		}
	}

	s.scheduleCleanup(id)
	return true
}

// Deactivate 停用布娃娃并恢复全部基线（对象池复用），未激活时无效
func (s *RagdollSystem) Deactivate(id ecs.EntityID) bool {
	r, ok := s.ragdoll(id)
	if !ok || !r.Active {
		return false
	}
	s.scheduler.CancelGroup(id, tasks.GroupRagdoll)

	for i := range r.Bones {
		b := &r.Bones[i]
		if b.HasBody() {
			s.physics.SetVelocity(b.Body, mgl64.Vec3{})
			s.physics.SetAngularVelocity(b.Body, mgl64.Vec3{})
			s.physics.SetKinematic(b.Body, b.BaseKinematic)
			s.physics.SetMass(b.Body, b.BaseMass)
			s.physics.SetDrag(b.Body, b.BaseLinearDrag, b.BaseAngularDrag)
		}
		if b.Collider != 0 {
			s.physics.SetColliderEnabled(b.Collider, b.BaseCollider)
		}
		b.Bounces = 0
	}

	r.Active = false
	r.InSlowMotion = false
	r.SlowBlendActive = false
	r.Fading = false
	r.FadeElapsed = 0
	r.FadeAlpha = 1
	r.LastHitDirection = mgl64.Vec3{}
	r.LastHitForce = 0

	if c, ok := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id); ok && c.Anim != nil {
		c.Anim.SetEnabled(r.BaseAnimatorEnabled)
	}

	s.logger.Debug().Uint64("entity", uint64(id)).Msg("[RagdollSystem] ragdoll deactivated")
	return true
}

// Update 未激活时骨骼跟随根节点；激活后推进阻力插值和淡出
func (s *RagdollSystem) Update(deltaTime float64) {
	for _, id := range ecs.GetEntitiesWith1[*components.RagdollComponent](s.entityManager) {
		r, _ := s.ragdoll(id)
		if !r.Active {
			s.followRoot(id, r)
			continue
		}
		if r.SlowBlendActive {
			s.stepDragBlend(r, deltaTime)
		}
		if r.Fading {
			s.stepFade(id, r, deltaTime)
		}
	}
}

// OnCollision 地面反弹：激活期间骨骼撞到地面时施加反射冲量，每根骨骼有次数上限
func (s *RagdollSystem) OnCollision(c ports.Collision) {
	if !s.config.EnableGroundBounce || c.OtherTag != types.TagGround {
		return
	}
	root := c.BodyEntity
	if parent, ok := ecs.GetComponent[*components.ParentComponent](s.entityManager, root); ok {
		root = parent.Parent
	}
	r, ok := s.ragdoll(root)
	if !ok || !r.Active {
		return
	}
	bone := r.BoneByBody(c.Body)
	if bone == nil || bone.Bounces >= s.config.MaxBounces {
		return
	}

	v := s.physics.Velocity(c.Body)
	speed := v.Len()
	if speed < 1e-6 {
		return
	}
	impulse := utils.Reflect(v.Mul(1/speed), c.Normal).Mul(speed * s.config.BounceForceMultiplier)
	s.physics.ApplyImpulse(c.Body, impulse)
	bone.Bounces++
}

// disableControl 关闭动画和导航，状态机进入 Dying
func (s *RagdollSystem) disableControl(id ecs.EntityID) {
	c, ok := ecs.GetComponent[*components.CombatantComponent](s.entityManager, id)
	if !ok {
		return
	}
	if c.Anim != nil {
		c.Anim.SetEnabled(false)
	}
	if s.combatants != nil {
		s.combatants.EnterDying(id)
	} else {
		c.State = types.StateDying
	}
	if c.Nav != nil {
		c.Nav.SetStopped(true)
		c.Nav.SetEnabled(false)
	}
}

// enablePhysics 骨骼切换为受重力影响的自由刚体
func (s *RagdollSystem) enablePhysics(r *components.RagdollComponent) {
	for i := range r.Bones {
		b := &r.Bones[i]
		if b.HasBody() {
			s.physics.SetKinematic(b.Body, false)
			s.physics.SetUseGravity(b.Body, true)
			s.physics.SetDrag(b.Body, s.config.InitialLinearDrag, s.config.InitialAngularDrag)
		}
		if b.Collider != 0 {
			s.physics.SetColliderEnabled(b.Collider, true)
		}
	}
}

func (s *RagdollSystem) freeze(r *components.RagdollComponent) {
	for i := range r.Bones {
		b := &r.Bones[i]
		if !b.HasBody() {
			continue
		}
		b.StoredVelocity = s.physics.Velocity(b.Body)
		b.StoredAngularVelocity = s.physics.AngularVelocity(b.Body)
		s.physics.SetVelocity(b.Body, mgl64.Vec3{})
		s.physics.SetAngularVelocity(b.Body, mgl64.Vec3{})
		s.physics.SetKinematic(b.Body, true)
	}
}

func (s *RagdollSystem) unfreeze(r *components.RagdollComponent, factor float64) {
	for i := range r.Bones {
		b := &r.Bones[i]
		if !b.HasBody() {
			continue
		}
		s.physics.SetKinematic(b.Body, false)
		s.physics.SetVelocity(b.Body, b.StoredVelocity.Mul(factor))
		s.physics.SetAngularVelocity(b.Body, b.StoredAngularVelocity.Mul(factor))
	}
}

// applyMainForce 主冲击：水平分量沿命中方向，另加向上分量和随机旋转
func (s *RagdollSystem) applyMainForce(id ecs.EntityID) {
	r, ok := s.ragdoll(id)
	if !ok || !r.Active {
		return
	}
	idx := r.MainBone()
	if idx < 0 {
		s.logger.Warn().Uint64("entity", uint64(id)).Msg("[RagdollSystem] no main body bone, skipping death force")
		return
	}
	main := r.Bones[idx].Body
	cfg := s.config

	dir := r.ActiveDirection
	if dir.Len() < 1e-9 {
		forward := components.WorldForward
		if tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
			forward = tr.Forward()
		}
		dir = forward.Mul(-1).Add(components.WorldUp.Mul(defaultBackwardUp))
	}
	dir = utils.SafeNormalize(dir)
	dir[1] = math.Max(dir.Y(), cfg.MinimumUpward)
	dir = utils.SafeNormalize(dir)

	force := r.ActiveForce * cfg.DeathForceMultiplier *
		utils.RandomRange(s.rng, 1-cfg.ForceRandomization, 1+cfg.ForceRandomization)
	force = math.Max(force, cfg.MinimumDeathForce*cfg.DeathForceMultiplier)

	s.physics.SetDrag(main, cfg.MainBodyDrag, cfg.MainBodyDrag)

	horizontal := utils.SafeNormalize(mgl64.Vec3{dir.X(), 0, dir.Z()})
	impulse := horizontal.Mul(force).Add(components.WorldUp.Mul(force * cfg.UpwardForceBoost))
	s.physics.ApplyImpulse(main, impulse)

	torque := utils.RandomOnUnitSphere(s.rng).Mul(cfg.SpinTorqueMultiplier * force * spinTorqueScale)
	s.physics.ApplyTorque(main, torque)

	s.logger.Debug().Uint64("entity", uint64(id)).Float64("force", force).
		Msg("[RagdollSystem] death force applied")
}

// flail 四肢甩动：非主体骨骼各受一个偏向上方的小随机冲量
func (s *RagdollSystem) flail(r *components.RagdollComponent) {
	intensity := s.config.LimbFlailIntensity
	for i := range r.Bones {
		b := &r.Bones[i]
		if !b.HasBody() || b.IsMain {
			continue
		}
		f := utils.RandomOnUnitSphere(s.rng)
		f[1] = math.Abs(f.Y()) * flailUpwardBias
		s.physics.ApplyImpulse(b.Body, f.Mul(intensity))
		s.physics.ApplyTorque(b.Body, utils.RandomOnUnitSphere(s.rng).Mul(intensity*flailTorqueScale))
	}
}

// startSlowMotion 局部慢动作：只放大本角色骨骼的阻力（以基线阻力为准）
func (s *RagdollSystem) startSlowMotion(r *components.RagdollComponent) {
	r.InSlowMotion = true
	mult := s.config.SlowMotionDragMultiplier
	for i := range r.Bones {
		b := &r.Bones[i]
		if !b.HasBody() {
			continue
		}
		s.physics.SetDrag(b.Body, b.BaseLinearDrag*mult, b.BaseAngularDrag*mult)
	}
}

func (s *RagdollSystem) beginDragBlend(r *components.RagdollComponent, duration float64) {
	if duration <= 0 {
		s.endSlowMotion(r)
		return
	}
	r.SlowBlendActive = true
	r.SlowBlendElapsed = 0
	r.SlowBlendDuration = duration
}

// stepDragBlend 阻力从慢动作值按缓动曲线回到基线
func (s *RagdollSystem) stepDragBlend(r *components.RagdollComponent, dt float64) {
	r.SlowBlendElapsed += dt
	t := utils.Clamp01(r.SlowBlendElapsed / r.SlowBlendDuration)
	if t >= 1 {
		s.endSlowMotion(r)
		return
	}
	e := s.easing(t)
	mult := s.config.SlowMotionDragMultiplier
	for i := range r.Bones {
		b := &r.Bones[i]
		if !b.HasBody() {
			continue
		}
		s.physics.SetDrag(b.Body,
			utils.Lerp(b.BaseLinearDrag*mult, b.BaseLinearDrag, e),
			utils.Lerp(b.BaseAngularDrag*mult, b.BaseAngularDrag, e))
	}
}

func (s *RagdollSystem) endSlowMotion(r *components.RagdollComponent) {
	for i := range r.Bones {
		b := &r.Bones[i]
		if b.HasBody() {
			s.physics.SetDrag(b.Body, b.BaseLinearDrag, b.BaseAngularDrag)
		}
	}
	r.SlowBlendActive = false
	r.InSlowMotion = false
}

// scheduleCleanup 等待 cleanupDelay - fadeOutDuration 后开始淡出（或直接销毁）
func (s *RagdollSystem) scheduleCleanup(id ecs.EntityID) {
	cfg := s.config
	key := tasks.Key{Owner: id, Group: tasks.GroupRagdoll}
	if cfg.EnableFadeOut && cfg.FadeOutDuration > 0 {
		s.scheduler.After(key, math.Max(0, cfg.CleanupDelay-cfg.FadeOutDuration), func() {
			s.withRagdoll(id, func(r *components.RagdollComponent) {
				r.Fading = true
				r.FadeElapsed = 0
			})
		})
		return
	}
	s.scheduler.After(key, cfg.CleanupDelay, func() {
		RequestDestroy(s.entityManager, id, "ragdoll cleanup")
	})
}

func (s *RagdollSystem) stepFade(id ecs.EntityID, r *components.RagdollComponent, dt float64) {
	r.FadeElapsed += dt
	t := utils.Clamp01(r.FadeElapsed / s.config.FadeOutDuration)
	r.FadeAlpha = 1 - t
	if t >= 1 {
		r.Fading = false
		RequestDestroy(s.entityManager, id, "ragdoll faded out")
	}
}

// followRoot 未激活的骨骼（运动学刚体）跟随角色根节点
func (s *RagdollSystem) followRoot(id ecs.EntityID, r *components.RagdollComponent) {
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return
	}
	for i := range r.Bones {
		b := &r.Bones[i]
		if b.HasBody() {
			s.physics.SetBodyPosition(b.Body, tr.Position.Add(tr.Rotation.Rotate(b.Offset)))
		}
	}
}

// withRagdoll 阶段任务执行时重新获取组件，角色已停用或销毁时跳过
func (s *RagdollSystem) withRagdoll(id ecs.EntityID, fn func(r *components.RagdollComponent)) {
	r, ok := s.ragdoll(id)
	if !ok || !r.Active {
		return
	}
	fn(r)
}

func (s *RagdollSystem) ragdoll(id ecs.EntityID) (*components.RagdollComponent, bool) {
	return ecs.GetComponent[*components.RagdollComponent](s.entityManager, id)
}
