package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
	"github.com/gonewx/horde/pkg/utils"
)

// 士兵：Roaming → (看见) Chasing/Attacking → (丢失视线) Seeking → Roaming

// updateSoldier 每帧推进士兵状态机
func (s *CombatantSystem) updateSoldier(id ecs.EntityID, c *components.CombatantComponent, tr *components.TransformComponent, target targetSnapshot, dt float64) {
	p := c.Params

	switch c.State {
	case types.StateRoaming:
		if arrived(c.Nav) {
			if point, ok := s.randomPoint(c, tr.Position, p.RoamRange); ok {
				c.Nav.SetDestination(point)
			} else {
				s.soldierIdle(id, c)
			}
		}

	case types.StateSeeking:
		if arrived(c.Nav) {
			s.scheduler.CancelGroup(id, groupSeek)
			s.setState(id, c, types.StateRoaming)
		} else {
			c.Nav.SetDestination(c.LastKnownPosition)
		}

	case types.StateChasing, types.StateAttacking:
		if !target.ok {
			s.soldierLoseSight(id, c)
			return
		}
		c.LastKnownPosition = target.position
		s.turnTowards(tr, target.position.Add(components.WorldUp.Mul(p.LookHeight)), p.TurnSpeed*dt)

		dist := tr.Position.Sub(target.position).Len()
		if dist <= p.AttackRange {
			s.setState(id, c, types.StateAttacking)
			if !c.Nav.IsStopped() {
				c.Nav.SetStopped(true)
				c.Nav.ResetPath()
			}
			s.TryAttack(id)
		} else {
			s.setState(id, c, types.StateChasing)
			if c.Nav.IsStopped() {
				c.Nav.SetStopped(false)
			}
			c.Nav.SetDestination(c.LastKnownPosition)
		}
	}
}

// soldierPerceive 感知轮询：巡游/搜索时寻找玩家，交战时确认视线
func (s *CombatantSystem) soldierPerceive(id ecs.EntityID, c *components.CombatantComponent) {
	switch c.State {
	case types.StateIdle, types.StateRoaming, types.StateSeeking:
		if s.canSee(id, c, s.player) {
			s.soldierAcquire(id, c, s.player)
		}
	case types.StateChasing, types.StateAttacking:
		if !s.canSee(id, c, c.Target) {
			s.soldierLoseSight(id, c)
		}
	}
}

func (s *CombatantSystem) soldierAcquire(id ecs.EntityID, c *components.CombatantComponent, target ecs.EntityID) {
	s.scheduler.CancelGroup(id, groupSeek)
	s.scheduler.CancelGroup(id, groupWait)

	c.Target = target
	if snap := s.snapshot(target); snap.ok {
		c.LastKnownPosition = snap.position
	}
	c.Nav.SetSpeed(c.Params.ChaseSpeed)
	c.Nav.SetStopped(false)
	s.setState(id, c, types.StateChasing)

	s.logger.Info().Uint64("entity", uint64(id)).Uint64("target", uint64(target)).
		Msg("[CombatantSystem] soldier spotted target")
}

// soldierLoseSight 丢失视线：前往最后位置搜索，超时后放弃
func (s *CombatantSystem) soldierLoseSight(id ecs.EntityID, c *components.CombatantComponent) {
	c.Target = ecs.InvalidEntity
	if !s.setState(id, c, types.StateSeeking) {
		return
	}
	c.Nav.SetSpeed(c.Params.WalkSpeed)
	c.Nav.SetStopped(false)
	c.Nav.SetDestination(c.LastKnownPosition)

	s.scheduler.CancelGroup(id, groupSeek)
	if c.Params.SeekTimeout > 0 {
		s.scheduler.After(tasks.Key{Owner: id, Group: groupSeek}, c.Params.SeekTimeout, func() {
			if cc, ok := s.combatant(id); ok && cc.State == types.StateSeeking {
				s.setState(id, cc, types.StateRoaming)
			}
		})
	}
}

// soldierIdle 找不到巡游点时原地待机一段时间后重新巡游
func (s *CombatantSystem) soldierIdle(id ecs.EntityID, c *components.CombatantComponent) {
	s.setState(id, c, types.StateIdle)
	if s.scheduler.Pending(id, groupWait) > 0 {
		return
	}

	delay := c.Params.DetectionDelay
	if c.Params.IdleTime.Max > 0 {
		delay = utils.RandomRange(s.rng, c.Params.IdleTime.Min, c.Params.IdleTime.Max)
	}
	s.scheduler.After(tasks.Key{Owner: id, Group: groupWait}, delay, func() {
		if cc, ok := s.combatant(id); ok && cc.State == types.StateIdle {
			s.setState(id, cc, types.StateRoaming)
		}
	})
}

// soldierFire 开火：枪口火光、枪声、带散布的子弹
func (s *CombatantSystem) soldierFire(id ecs.EntityID, c *components.CombatantComponent, tr *components.TransformComponent, targetPos mgl64.Vec3) {
	p := c.Params

	c.Nav.SetStopped(true)
	c.Nav.ResetPath()

	muzzle := tr.Position.Add(tr.Rotation.Rotate(p.MuzzleOffset))
	s.showMuzzleFlash(id, c, tr, muzzle)

	if p.Sounds.Fire != "" {
		c.Audio.PlayOneShot(p.Sounds.Fire, p.Sounds.Volume)
	} else {
		s.logger.Warn().Uint64("entity", uint64(id)).Msg("[CombatantSystem] no fire sound configured")
	}

	aim := targetPos.Add(components.WorldUp.Mul(p.LookHeight))
	dir := utils.SafeNormalize(aim.Sub(muzzle))
	if dir.Len() == 0 {
		dir = tr.Forward()
	}
	spread := (1 - p.Accuracy) * p.MaxSpreadAngle
	if spread > 0 {
		offset := utils.EulerDegrees(
			utils.RandomRange(s.rng, -spread, spread),
			utils.RandomRange(s.rng, -spread, spread),
			0,
		)
		dir = offset.Rotate(dir)
	}

	if s.shooter != nil {
		s.shooter.Fire(id, muzzle, utils.LookRotation(dir), p.ProjectileSpeed)
	}
	c.Anim.PlayState(animFire, 0, 0)
	c.AttackTimer = p.AttackCooldown
}

func (s *CombatantSystem) showMuzzleFlash(id ecs.EntityID, c *components.CombatantComponent, tr *components.TransformComponent, muzzle mgl64.Vec3) {
	if !c.Params.HasMuzzleFlash {
		s.logger.Warn().Uint64("entity", uint64(id)).Msg("[CombatantSystem] no muzzle flash configured")
		return
	}

	s.scheduler.CancelGroup(id, groupFlash)
	c.MuzzleFlashActive = true
	s.effects.SpawnEffect(ports.EffectMuzzleFlash, muzzle, tr.Forward())
	s.scheduler.After(tasks.Key{Owner: id, Group: groupFlash}, c.Params.FlashDuration, func() {
		if cc, ok := s.combatant(id); ok {
			cc.MuzzleFlashActive = false
		}
	})
}

// turnTowards 水平转向 look 点
func (s *CombatantSystem) turnTowards(tr *components.TransformComponent, look mgl64.Vec3, t float64) {
	rot, ok := utils.YawRotation(look.Sub(tr.Position))
	if !ok {
		return
	}
	tr.Rotation = mgl64.QuatSlerp(tr.Rotation, rot, utils.Clamp01(t))
}
