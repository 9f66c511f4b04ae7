package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
	"github.com/gonewx/horde/pkg/utils"
)

// 僵尸行为概率
const (
	idleSoundChance      = 0.3
	idleToPatrolChance   = 0.5
	randomSoundChance    = 0.3
	randomSoundMinFactor = 0.5
	randomSoundMaxFactor = 2.0
	patrolWaitMinFactor  = 0.5
	patrolWaitMaxFactor  = 1.5
)

// updateZombie 每帧推进僵尸状态机
func (s *CombatantSystem) updateZombie(id ecs.EntityID, c *components.CombatantComponent, tr *components.TransformComponent, target targetSnapshot) {
	p := c.Params

	switch c.State {
	case types.StatePatrolling:
		if arrived(c.Nav) && s.scheduler.Pending(id, groupWait) == 0 {
			s.zombiePatrolWait(id, c)
		}

	case types.StateRoaming:
		if arrived(c.Nav) {
			if point, ok := s.randomPoint(c, tr.Position, p.RoamRange); ok {
				c.Nav.SetDestination(point)
			} else {
				s.zombieIdle(id, c)
			}
		}

	case types.StateChasing:
		if !target.ok {
			c.Target = ecs.InvalidEntity
			c.Nav.SetSpeed(p.WalkSpeed)
			s.zombieChooseInitialBehavior(id, c)
			return
		}
		c.LastKnownPosition = target.position

		dist := tr.Position.Sub(target.position).Len()
		switch {
		case dist <= p.AttackRange && c.AttackTimer <= 0:
			s.TryAttack(id)
		case dist > p.DetectRange:
			c.Target = ecs.InvalidEntity
			c.Nav.SetSpeed(p.WalkSpeed)
			s.zombieChooseInitialBehavior(id, c)
		default:
			c.Nav.SetDestination(target.position)
		}

	case types.StateAttacking:
		if !c.IsAttacking {
			s.setState(id, c, types.StateChasing)
		}
	}
}

// zombiePerceive 感知轮询：空闲时寻找玩家，追击时确认视线
func (s *CombatantSystem) zombiePerceive(id ecs.EntityID, c *components.CombatantComponent) {
	switch c.State {
	case types.StateIdle, types.StatePatrolling, types.StateRoaming:
		if s.canSee(id, c, s.player) {
			s.playRandom(c, c.Params.Sounds.Growl)
			s.zombieSetTarget(id, c, s.player)
		}
	case types.StateChasing:
		if !s.canSee(id, c, c.Target) {
			c.Target = ecs.InvalidEntity
			c.Nav.SetSpeed(c.Params.WalkSpeed)
			s.zombieChooseInitialBehavior(id, c)
		}
	}
}

func (s *CombatantSystem) zombieSetTarget(id ecs.EntityID, c *components.CombatantComponent, target ecs.EntityID) {
	s.scheduler.CancelGroup(id, groupWait)

	c.Target = target
	if snap := s.snapshot(target); snap.ok {
		c.LastKnownPosition = snap.position
	}
	s.setState(id, c, types.StateChasing)
	c.Nav.SetSpeed(c.Params.ChaseSpeed)
	c.Nav.SetStopped(false)

	s.logger.Info().Uint64("entity", uint64(id)).Uint64("target", uint64(target)).
		Msg("[CombatantSystem] zombie spotted target")
}

// zombieChooseInitialBehavior 无目标时在巡逻和待机之间选择
func (s *CombatantSystem) zombieChooseInitialBehavior(id ecs.EntityID, c *components.CombatantComponent) {
	s.scheduler.CancelGroup(id, groupWait)

	if c.Params.UseRandomPatrolling && s.rng.Float64() < c.Params.RandomPatrolChance {
		s.setState(id, c, types.StatePatrolling)
		s.zombieMoveToPatrolPoint(id, c)
		return
	}
	s.zombieIdle(id, c)
}

func (s *CombatantSystem) zombieMoveToPatrolPoint(id ecs.EntityID, c *components.CombatantComponent) {
	pos := c.Nav.Position()
	point, ok := s.randomPoint(c, pos, c.Params.RoamRange)
	if !ok {
		s.zombieIdle(id, c)
		return
	}
	c.PatrolTarget = point
	c.Nav.SetSpeed(c.Params.WalkSpeed)
	c.Nav.SetStopped(false)
	c.Nav.SetDestination(point)
}

// zombieIdle 待机一段随机时间，期间可能发出低吼，之后转入巡逻或巡游
func (s *CombatantSystem) zombieIdle(id ecs.EntityID, c *components.CombatantComponent) {
	s.setState(id, c, types.StateIdle)
	s.scheduler.CancelGroup(id, groupWait)

	if s.rng.Float64() < idleSoundChance {
		s.playRandom(c, c.Params.Sounds.Idle)
	}

	wait := utils.RandomRange(s.rng, c.Params.IdleTime.Min, c.Params.IdleTime.Max)
	s.scheduler.After(tasks.Key{Owner: id, Group: groupWait}, wait, func() {
		cc, ok := s.combatant(id)
		if !ok || cc.State != types.StateIdle {
			return
		}
		if cc.Params.UseRandomPatrolling && s.rng.Float64() < idleToPatrolChance {
			s.setState(id, cc, types.StatePatrolling)
			s.zombieMoveToPatrolPoint(id, cc)
			return
		}
		s.setState(id, cc, types.StateRoaming)
		cc.Nav.SetSpeed(cc.Params.WalkSpeed)
		cc.Nav.SetStopped(false)
	})
}

// zombiePatrolWait 到达巡逻点后停留，然后前往下一个巡逻点
func (s *CombatantSystem) zombiePatrolWait(id ecs.EntityID, c *components.CombatantComponent) {
	s.setState(id, c, types.StateIdle)

	base := c.Params.PatrolWaitTime
	wait := utils.RandomRange(s.rng, base*patrolWaitMinFactor, base*patrolWaitMaxFactor)
	s.scheduler.After(tasks.Key{Owner: id, Group: groupWait}, wait, func() {
		cc, ok := s.combatant(id)
		if !ok || cc.State != types.StateIdle {
			return
		}
		s.setState(id, cc, types.StatePatrolling)
		s.zombieMoveToPatrolPoint(id, cc)
	})
}

// zombieStartAttack 开始一次近战攻击
// 伤害在动画命中事件（或 attackImpactTime 兜底）时结算，攻击动画结束后恢复移动
func (s *CombatantSystem) zombieStartAttack(id ecs.EntityID, c *components.CombatantComponent, tr *components.TransformComponent, targetPos mgl64.Vec3) {
	p := c.Params

	c.IsAttacking = true
	c.ImpactDelivered = false
	c.AttackTimer = p.AttackCooldown
	c.Nav.SetStopped(true)

	if rot, ok := utils.YawRotation(targetPos.Sub(tr.Position)); ok {
		tr.Rotation = rot
	}
	s.randomizeBlend(c)
	c.Anim.SetTrigger(animAttack)
	c.Anim.SetBool(animAttacking, true)

	key := tasks.Key{Owner: id, Group: groupAttack}
	s.scheduler.CancelGroup(id, groupAttack)
	if p.AttackImpactTime > 0 && p.AttackImpactTime < p.AttackDuration {
		s.scheduler.After(key, p.AttackImpactTime, func() {
			s.zombieDeliverImpact(id)
		})
	}
	s.scheduler.After(key, p.AttackDuration, func() {
		s.zombieEndAttack(id)
	})
}

// zombieDeliverImpact 结算近战伤害，每次攻击最多一次
func (s *CombatantSystem) zombieDeliverImpact(id ecs.EntityID) {
	c, ok := s.combatant(id)
	if !ok || c.IsDying() || !c.IsAttacking || c.ImpactDelivered {
		return
	}
	c.ImpactDelivered = true

	s.playRandom(c, c.Params.Sounds.Attack)

	target := s.snapshot(c.Target)
	tr, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !target.ok || !ok {
		return
	}
	if tr.Position.Sub(target.position).Len() > c.Params.AttackRange {
		return
	}
	if s.damager != nil {
		s.damager.ApplyDamage(c.Target, c.Params.AttackDamage)
	}
}

func (s *CombatantSystem) zombieEndAttack(id ecs.EntityID) {
	c, ok := s.combatant(id)
	if !ok || c.IsDying() || !c.IsAttacking {
		return
	}
	if !c.ImpactDelivered && c.Params.AttackImpactTime >= c.Params.AttackDuration {
		s.zombieDeliverImpact(id)
	}
	c.IsAttacking = false
	c.Anim.SetBool(animAttacking, false)
	c.Nav.SetStopped(false)
}

// zombieScheduleRandomSound 随机环境音效循环
func (s *CombatantSystem) zombieScheduleRandomSound(id ecs.EntityID) {
	c, ok := s.combatant(id)
	if !ok || c.IsDying() || c.Params.RandomSoundInterval <= 0 {
		return
	}
	interval := c.Params.RandomSoundInterval
	delay := utils.RandomRange(s.rng, interval*randomSoundMinFactor, interval*randomSoundMaxFactor)
	s.scheduler.After(tasks.Key{Owner: id, Group: groupSound}, delay, func() {
		cc, ok := s.combatant(id)
		if !ok || cc.IsDying() {
			return
		}
		if s.rng.Float64() < randomSoundChance {
			if cc.State == types.StateChasing {
				s.playRandom(cc, cc.Params.Sounds.Growl)
			} else {
				s.playRandom(cc, cc.Params.Sounds.Idle)
			}
		}
		s.zombieScheduleRandomSound(id)
	})
}
