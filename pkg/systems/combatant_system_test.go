package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
)

// TestSoldier_AcquiresAndFires 士兵看见玩家后进入攻击并开火，子弹命中玩家
func TestSoldier_AcquiresAndFires(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 8})
	soldier := w.spawnCombatant(t, "soldier", soldierArchetype(), mgl64.Vec3{0, 0, 0})

	if got := w.combatants.State(soldier); got != types.StateRoaming {
		t.Fatalf("initial state = %v, want Roaming", got)
	}

	w.run(0.5)
	c := w.combatant(t, soldier)
	if c.State != types.StateAttacking {
		t.Fatalf("state after detection = %v, want Attacking", c.State)
	}
	if c.Target != w.player {
		t.Errorf("Target = %d, want player %d", c.Target, w.player)
	}
	if len(w.shooter.shots) != 1 {
		t.Fatalf("shots = %d, want 1", len(w.shooter.shots))
	}

	// 冷却期间不再开火，子弹命中玩家
	w.run(0.1)
	if len(w.shooter.shots) != 1 {
		t.Errorf("shots during cooldown = %d, want 1", len(w.shooter.shots))
	}
	if got := w.healthOf(t, w.player).Current; got != 100-w.projectileConfig.PlayerDamage {
		t.Errorf("player health = %v, want %v", got, 100-w.projectileConfig.PlayerDamage)
	}
	if w.audio(t, soldier).Count("soldier_fire") != 1 {
		t.Error("fire sound should play once")
	}
}

// TestSoldier_TryAttackRespectsCooldown 连续两次攻击请求只产生一颗子弹
func TestSoldier_TryAttackRespectsCooldown(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 8})
	soldier := w.addCombatant(t, "soldier", soldierArchetype(), mgl64.Vec3{0, 0, 0})
	c := w.combatant(t, soldier)
	c.Target = w.player
	c.State = types.StateChasing

	if !w.combatants.TryAttack(soldier) {
		t.Fatal("first TryAttack should succeed")
	}
	if w.combatants.TryAttack(soldier) {
		t.Error("second TryAttack should be rejected by cooldown")
	}
	if len(w.shooter.shots) != 1 {
		t.Fatalf("shots = %d, want 1", len(w.shooter.shots))
	}
	if c.AttackTimer != 0.3 {
		t.Errorf("AttackTimer = %v, want 0.3", c.AttackTimer)
	}
	if !c.MuzzleFlashActive || w.effects.Count(ports.EffectMuzzleFlash) != 1 {
		t.Error("muzzle flash should be shown")
	}

	// 计时器未归零时 Update 里的攻击请求也被拒绝
	w.combatants.Update(0.15)
	if len(w.shooter.shots) != 1 {
		t.Errorf("shots before timer reaches zero = %d, want 1", len(w.shooter.shots))
	}

	w.scheduler.Update(0.1)
	if c.MuzzleFlashActive {
		t.Error("muzzle flash should turn off after flashDuration")
	}

	w.combatants.Update(0.15)
	if len(w.shooter.shots) != 2 {
		t.Errorf("shots after cooldown = %d, want 2", len(w.shooter.shots))
	}
}

// TestSoldier_AimsWithoutSpreadWhenAccurate 精度为 1 时子弹朝向瞄准点
func TestSoldier_AimsWithoutSpreadWhenAccurate(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 8})
	soldier := w.addCombatant(t, "soldier", soldierArchetype(), mgl64.Vec3{0, 0, 0})
	c := w.combatant(t, soldier)
	c.Target = w.player

	w.combatants.TryAttack(soldier)
	if len(w.shooter.shots) != 1 {
		t.Fatalf("shots = %d, want 1", len(w.shooter.shots))
	}
	s := w.shooter.shots[0]
	if s.origin != (mgl64.Vec3{0, 1.4, 0.6}) {
		t.Errorf("muzzle = %v, want (0,1.4,0.6)", s.origin)
	}
	want := mgl64.Vec3{0, 1.14, 8}.Sub(s.origin).Normalize()
	got := s.rotation.Rotate(components.WorldForward)
	if got.Sub(want).Len() > 1e-6 {
		t.Errorf("shot direction = %v, want %v", got, want)
	}
	if s.speed != 400 {
		t.Errorf("speed = %v, want 400", s.speed)
	}
}

// TestSoldier_LoseSightSeeksThenRoams 丢失视线后搜索，超时回到巡游
func TestSoldier_LoseSightSeeksThenRoams(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 15})
	soldier := w.spawnCombatant(t, "soldier", soldierArchetype(), mgl64.Vec3{0, 0, 0})

	w.run(0.5)
	c := w.combatant(t, soldier)
	if c.State != types.StateChasing {
		t.Fatalf("state = %v, want Chasing", c.State)
	}

	w.addWall(mgl64.Vec3{0, 1, 10}, mgl64.Vec3{5, 3, 0.2}, types.TagConcrete)
	w.run(0.5)
	if c.State != types.StateSeeking {
		t.Fatalf("state after losing sight = %v, want Seeking", c.State)
	}
	if c.HasTarget() {
		t.Error("target should be cleared when sight is lost")
	}
	if c.LastKnownPosition != (mgl64.Vec3{0, 0, 15}) {
		t.Errorf("LastKnownPosition = %v, want (0,0,15)", c.LastKnownPosition)
	}
	if w.scheduler.Pending(soldier, groupSeek) != 1 {
		t.Errorf("seek timeout tasks = %d, want 1", w.scheduler.Pending(soldier, groupSeek))
	}

	w.run(1.0)
	if c.State != types.StateRoaming {
		t.Errorf("state after seek timeout = %v, want Roaming", c.State)
	}
}

// TestCombatant_EnterDyingCancelsBehavior 进入 Dying 取消全部行为任务并拒绝后续转换
func TestCombatant_EnterDyingCancelsBehavior(t *testing.T) {
	w := newTestWorld(t)
	zombie := w.spawnCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})

	if w.scheduler.Pending(zombie, groupPerception) != 1 {
		t.Fatalf("perception tasks = %d, want 1", w.scheduler.Pending(zombie, groupPerception))
	}
	if w.scheduler.Pending(zombie, groupWait) != 1 {
		t.Fatalf("idle wait tasks = %d, want 1", w.scheduler.Pending(zombie, groupWait))
	}

	if !w.combatants.EnterDying(zombie) {
		t.Fatal("EnterDying should succeed the first time")
	}
	for _, g := range behaviorGroups {
		if n := w.scheduler.Pending(zombie, g); n != 0 {
			t.Errorf("group %s still has %d tasks", g, n)
		}
	}
	if w.combatants.EnterDying(zombie) {
		t.Error("EnterDying should be idempotent")
	}
	if w.combatants.SetState(zombie, types.StateRoaming) {
		t.Error("Dying should reject further transitions")
	}
	c := w.combatant(t, zombie)
	if c.State != types.StateDying || !c.Nav.IsStopped() {
		t.Errorf("State = %v, stopped = %v; want Dying, stopped", c.State, c.Nav.IsStopped())
	}
	if w.combatants.TryAttack(zombie) {
		t.Error("dying combatant cannot attack")
	}
}

// TestCombatant_MissingPortsUseNullObjects 缺少导航/动画/音频时使用空实现
func TestCombatant_MissingPortsUseNullObjects(t *testing.T) {
	w := newTestWorld(t)
	zombie := w.addCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{1, 0, 2})
	c := w.combatant(t, zombie)
	c.Nav = nil
	c.Anim = nil
	c.Audio = nil

	w.combatants.Register(zombie)
	if c.Nav == nil || c.Anim == nil || c.Audio == nil {
		t.Fatal("missing ports should be replaced")
	}
	if c.Nav.Position() != (mgl64.Vec3{1, 0, 2}) {
		t.Errorf("stationary nav position = %v, want spawn position", c.Nav.Position())
	}
	w.run(1)
}

// TestZombie_IdleThenRoams 不巡逻的僵尸先待机，等待结束后巡游
func TestZombie_IdleThenRoams(t *testing.T) {
	w := newTestWorld(t)
	zombie := w.spawnCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})

	if got := w.combatants.State(zombie); got != types.StateIdle {
		t.Fatalf("initial state = %v, want Idle", got)
	}
	w.run(3)
	if got := w.combatants.State(zombie); got != types.StateRoaming {
		t.Errorf("state after idle wait = %v, want Roaming", got)
	}
}

// TestZombie_PatrolsWhenEnabled 启用巡逻且概率为 1 时直接巡逻
func TestZombie_PatrolsWhenEnabled(t *testing.T) {
	w := newTestWorld(t)
	a := zombieArchetype()
	a.UseRandomPatrolling = true
	a.RandomPatrolChance = 1
	a.PatrolWaitTime = 1
	zombie := w.spawnCombatant(t, "zombie", a, mgl64.Vec3{0, 0, 0})

	c := w.combatant(t, zombie)
	if c.State != types.StatePatrolling {
		t.Fatalf("state = %v, want Patrolling", c.State)
	}
	agent, _ := w.nav.Agent(zombie)
	if !agent.HasPath() || agent.Destination() != c.PatrolTarget {
		t.Errorf("agent should head to patrol target %v", c.PatrolTarget)
	}
}

// TestZombie_MeleeDeliversDamageOnce 一次攻击只结算一次伤害
func TestZombie_MeleeDeliversDamageOnce(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 1.5})
	zombie := w.addCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})
	c := w.combatant(t, zombie)
	c.Target = w.player
	c.State = types.StateChasing

	if !w.combatants.TryAttack(zombie) {
		t.Fatal("TryAttack should start an attack")
	}
	if w.combatants.TryAttack(zombie) {
		t.Error("TryAttack during an attack should be rejected")
	}
	anim := w.animator(t, zombie)
	if anim.TriggerCount("Attack") != 1 || !anim.Bools["Attacking"] {
		t.Error("attack animation should start once")
	}
	if !c.Nav.IsStopped() {
		t.Error("zombie should stop while attacking")
	}

	w.scheduler.Update(0.5)
	if got := w.healthOf(t, w.player).Current; got != 90 {
		t.Fatalf("player health after impact = %v, want 90", got)
	}

	// 动画事件重复触发不再结算
	w.combatants.OnAttackImpact(zombie)
	if got := w.healthOf(t, w.player).Current; got != 90 {
		t.Errorf("player health after duplicate impact = %v, want 90", got)
	}
	if w.audio(t, zombie).Count("zombie_bite") != 1 {
		t.Error("bite sound should play once")
	}

	w.scheduler.Update(0.5)
	if c.IsAttacking || anim.Bools["Attacking"] {
		t.Error("attack should end after attackDuration")
	}
	if c.Nav.IsStopped() {
		t.Error("zombie should resume moving after the attack")
	}
	if got := w.healthOf(t, w.player).Current; got != 90 {
		t.Errorf("player health after attack end = %v, want 90", got)
	}
}

// TestZombie_ImpactFallbacks 命中时刻晚于动画结束、目标离开攻击范围
func TestZombie_ImpactFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		impactTime float64
		movePlayer bool
		wantHealth float64
	}{
		{name: "命中时刻在动画内", impactTime: 0.5, wantHealth: 90},
		{name: "命中时刻晚于动画结束时在结束时结算", impactTime: 1.2, wantHealth: 90},
		{name: "命中时目标已离开攻击范围", impactTime: 0.5, movePlayer: true, wantHealth: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			w.addPlayer(t, mgl64.Vec3{0, 0, 1.5})
			a := zombieArchetype()
			a.AttackImpactTime = tt.impactTime
			zombie := w.addCombatant(t, "zombie", a, mgl64.Vec3{0, 0, 0})
			c := w.combatant(t, zombie)
			c.Target = w.player

			if !w.combatants.TryAttack(zombie) {
				t.Fatal("TryAttack should start an attack")
			}
			if tt.movePlayer {
				w.movePlayer(mgl64.Vec3{0, 0, 5})
			}
			w.scheduler.Update(1.0)

			if got := w.healthOf(t, w.player).Current; got != tt.wantHealth {
				t.Errorf("player health = %v, want %v", got, tt.wantHealth)
			}
			if !c.ImpactDelivered {
				t.Error("impact should be consumed even when it misses")
			}
		})
	}
}

// TestZombie_ChasesAndBites 僵尸发现玩家，追击到攻击范围内后啃咬
func TestZombie_ChasesAndBites(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 5})
	zombie := w.spawnCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})

	w.run(0.5)
	c := w.combatant(t, zombie)
	if c.State != types.StateChasing {
		t.Fatalf("state = %v, want Chasing", c.State)
	}
	if w.audio(t, zombie).Count("zombie_growl") != 1 {
		t.Error("zombie should growl when spotting the player")
	}
	if c.Nav.Speed() != 2.5 {
		t.Errorf("chase speed = %v, want 2.5", c.Nav.Speed())
	}

	w.run(2.0)
	if got := w.healthOf(t, w.player).Current; got != 90 {
		t.Errorf("player health = %v, want 90", got)
	}
}

// TestZombie_DropsDeadTarget 目标死亡后放弃追击
func TestZombie_DropsDeadTarget(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 5})
	zombie := w.spawnCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})
	w.run(0.5)

	w.health.Die(w.player)
	w.tick(testFrame)

	c := w.combatant(t, zombie)
	if c.HasTarget() {
		t.Error("target should be dropped once it is dead")
	}
	if c.State != types.StateIdle {
		t.Errorf("state = %v, want Idle", c.State)
	}
	if c.Nav.Speed() != 1.5 {
		t.Errorf("speed = %v, want walk speed 1.5", c.Nav.Speed())
	}
}

// TestCombatant_RootBodyFollowsNav 根节点刚体跟随导航代理
func TestCombatant_RootBodyFollowsNav(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 5})
	zombie := w.spawnCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})
	w.run(1.0)

	tr, _ := ecs.GetComponent[*components.TransformComponent](w.em, zombie)
	col, _ := ecs.GetComponent[*components.ColliderComponent](w.em, zombie)
	if tr.Position.Z() <= 0 {
		t.Fatalf("zombie should have moved towards the player, position = %v", tr.Position)
	}
	if got := w.physics.BodyPosition(col.Body); got != tr.Position {
		t.Errorf("root body = %v, want %v", got, tr.Position)
	}
}

// TestCombatant_ReviveRestartsBehavior 复用时重新启动行为
func TestCombatant_ReviveRestartsBehavior(t *testing.T) {
	w := newTestWorld(t)
	zombie := w.spawnCombatant(t, "zombie", zombieArchetype(), mgl64.Vec3{0, 0, 0})
	w.combatants.EnterDying(zombie)

	w.combatants.Revive(zombie)
	if got := w.combatants.State(zombie); got == types.StateDying {
		t.Fatal("revived combatant should leave Dying")
	}
	if w.scheduler.Pending(zombie, groupPerception) != 1 {
		t.Errorf("perception tasks = %d, want 1", w.scheduler.Pending(zombie, groupPerception))
	}
	if w.scheduler.Pending(zombie, tasks.GroupRagdoll) != 0 {
		t.Error("revive should not schedule ragdoll tasks")
	}
}
