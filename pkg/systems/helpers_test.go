package systems

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/entities"
	"github.com/gonewx/horde/pkg/sandbox"
	"github.com/gonewx/horde/pkg/tasks"
	"github.com/gonewx/horde/pkg/types"
)

// testFrame 测试使用的固定帧长
const testFrame = 0.02

// shot 一次 Fire 调用
type shot struct {
	owner    ecs.EntityID
	origin   mgl64.Vec3
	rotation mgl64.Quat
	speed    float64
}

// countingShooter 记录开火调用，并转发给真实的子弹系统
type countingShooter struct {
	inner Shooter
	shots []shot
}

func (c *countingShooter) Fire(owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID {
	c.shots = append(c.shots, shot{owner: owner, origin: origin, rotation: rotation, speed: speed})
	if c.inner == nil {
		return ecs.InvalidEntity
	}
	return c.inner.Fire(owner, origin, rotation, speed)
}

// deathCounter 记录死亡通知
type deathCounter struct {
	ids []ecs.EntityID
}

func (d *deathCounter) NotifyDeath(id ecs.EntityID) {
	d.ids = append(d.ids, id)
}

// testWorld 完整接线的模拟环境（沙盒物理、导航和全部系统）
type testWorld struct {
	em        *ecs.EntityManager
	scheduler *tasks.Scheduler
	physics   *sandbox.World
	nav       *sandbox.NavMesh
	effects   *sandbox.EffectLog
	rng       *rand.Rand

	perception  *PerceptionSystem
	ragdoll     *RagdollSystem
	health      *HealthSystem
	projectiles *ProjectileSystem
	combatants  *CombatantSystem
	lifetime    *LifetimeSystem
	shooter     *countingShooter
	deaths      *deathCounter

	projectileConfig config.ProjectileConfig
	player           ecs.EntityID
	playerAudio      *sandbox.AudioSource
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	w := &testWorld{
		em:               ecs.NewEntityManager(),
		scheduler:        tasks.NewScheduler(),
		physics:          sandbox.NewWorld(),
		nav:              sandbox.NewNavMesh(mgl64.Vec3{-50, 0, -50}, mgl64.Vec3{50, 0, 50}, 0),
		effects:          sandbox.NewEffectLog(),
		rng:              rand.New(rand.NewSource(1)),
		projectileConfig: config.DefaultProjectileConfig(),
		deaths:           &deathCounter{},
	}

	w.perception = NewPerceptionSystem(w.em, w.physics)
	w.ragdoll = NewRagdollSystem(w.em, w.scheduler, w.physics, config.DefaultRagdollConfig(), w.rng)
	w.health = NewHealthSystem(w.em, w.scheduler, w.physics, w.ragdoll, w.rng)
	w.projectiles = NewProjectileSystem(w.em, w.physics, w.effects, w.health, w.ragdoll, w.projectileConfig)
	w.shooter = &countingShooter{inner: w.projectiles}
	w.combatants = NewCombatantSystem(w.em, w.scheduler, w.perception, w.shooter, w.health, w.effects, w.rng)
	w.combatants.AttachPhysics(w.physics)
	w.health.AttachCombatants(w.combatants)
	w.health.SetDeathNotifier(w.deaths)
	w.ragdoll.AttachCombatants(w.combatants)
	w.lifetime = NewLifetimeSystem(w.em, w.scheduler, w.physics, w.nav)

	w.projectiles.SetFactory(entities.ProjectileSpawner(w.em, w.physics, w.projectileConfig))
	w.physics.SubscribeCollisions(w.projectiles.OnCollision)
	w.physics.SubscribeCollisions(w.ragdoll.OnCollision)
	return w
}

// addPlayer 创建玩家目标
func (w *testWorld) addPlayer(t *testing.T, pos mgl64.Vec3) ecs.EntityID {
	t.Helper()
	w.playerAudio = sandbox.NewAudioSource()
	id, err := entities.NewPlayer(w.em, w.physics, config.PlayerConfig{
		Start:         pos,
		MaxHealth:     100,
		HalfExtents:   mgl64.Vec3{0.3, 0.9, 0.3},
		HurtCooldown:  0.5,
		GameOverDelay: 2,
		HurtSound:     "player_hurt",
		DeathSound:    "player_death",
	}, w.playerAudio)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	w.player = id
	w.combatants.SetPlayer(id)
	return id
}

// movePlayer 移动玩家（同时移动玩家刚体）
func (w *testWorld) movePlayer(pos mgl64.Vec3) {
	tr, _ := ecs.GetComponent[*components.TransformComponent](w.em, w.player)
	tr.Position = pos
	if col, ok := ecs.GetComponent[*components.ColliderComponent](w.em, w.player); ok {
		w.physics.SetBodyPosition(col.Body, pos)
	}
}

// addCombatant 创建角色并初始化布娃娃（不启动行为）
func (w *testWorld) addCombatant(t *testing.T, name string, a *config.CombatantArchetype, pos mgl64.Vec3) ecs.EntityID {
	t.Helper()
	id, err := entities.NewCombatant(w.em, w.physics, w.nav, name, a, pos)
	if err != nil {
		t.Fatalf("NewCombatant() error = %v", err)
	}
	if w.ragdoll.Has(id) {
		w.ragdoll.Setup(id)
	}
	return id
}

// spawnCombatant 创建角色并启动行为
func (w *testWorld) spawnCombatant(t *testing.T, name string, a *config.CombatantArchetype, pos mgl64.Vec3) ecs.EntityID {
	t.Helper()
	id := w.addCombatant(t, name, a, pos)
	w.combatants.Register(id)
	return id
}

// addWall 创建静态墙体
func (w *testWorld) addWall(center, halfExtents mgl64.Vec3, tag string) ecs.EntityID {
	return entities.NewSurface(w.em, w.physics, w.nav, config.BoxConfig{Center: center, HalfExtents: halfExtents, Tag: tag})
}

// tick 按宿主的顺序推进一帧
func (w *testWorld) tick(dt float64) {
	w.projectiles.FixedUpdate()
	w.physics.Step(dt)
	w.nav.Step(dt)
	w.scheduler.Update(dt)
	w.combatants.Update(dt)
	w.ragdoll.Update(dt)
	w.lifetime.Update(dt)
}

// run 以固定帧长推进指定时长
func (w *testWorld) run(seconds float64) {
	steps := int(seconds/testFrame + 0.5)
	for i := 0; i < steps; i++ {
		w.tick(testFrame)
	}
}

func (w *testWorld) combatant(t *testing.T, id ecs.EntityID) *components.CombatantComponent {
	t.Helper()
	c, ok := ecs.GetComponent[*components.CombatantComponent](w.em, id)
	if !ok {
		t.Fatalf("entity %d has no CombatantComponent", id)
	}
	return c
}

func (w *testWorld) healthOf(t *testing.T, id ecs.EntityID) *components.HealthComponent {
	t.Helper()
	h, ok := ecs.GetComponent[*components.HealthComponent](w.em, id)
	if !ok {
		t.Fatalf("entity %d has no HealthComponent", id)
	}
	return h
}

func (w *testWorld) animator(t *testing.T, id ecs.EntityID) *sandbox.Animator {
	t.Helper()
	a, ok := w.combatant(t, id).Anim.(*sandbox.Animator)
	if !ok {
		t.Fatalf("entity %d has no sandbox animator", id)
	}
	return a
}

func (w *testWorld) audio(t *testing.T, id ecs.EntityID) *sandbox.AudioSource {
	t.Helper()
	a, ok := w.combatant(t, id).Audio.(*sandbox.AudioSource)
	if !ok {
		t.Fatalf("entity %d has no sandbox audio source", id)
	}
	return a
}

// projectileCount 当前存在的子弹数量
func (w *testWorld) projectileCount() int {
	return len(ecs.GetEntitiesWith1[*components.ProjectileComponent](w.em))
}

// soldierArchetype 测试用士兵原型：不巡游（roamRange 为 0 时原地采样）
func soldierArchetype() *config.CombatantArchetype {
	return &config.CombatantArchetype{
		Kind:              types.CombatantSoldier,
		MaxHealth:         3,
		DetectRange:       18,
		AttackRange:       12,
		RoamRange:         0,
		DetectionDelay:    0.5,
		EyeHeight:         0.5,
		LookHeight:        1.14,
		TurnSpeed:         5,
		WalkSpeed:         3.5,
		ChaseSpeed:        3.5,
		SampleRadius:      1,
		MaxSampleAttempts: 1,
		SeekTimeout:       1,
		AttackCooldown:    0.3,
		AttackDuration:    0.3,
		Accuracy:          1,
		MaxSpreadAngle:    30,
		ProjectileSpeed:   400,
		MuzzleOffset:      mgl64.Vec3{0, 1.4, 0.6},
		FlashDuration:     0.1,
		HasMuzzleFlash:    true,
		HurtCooldown:      0.2,
		HurtSoundChance:   1,
		ImpactLayer:       "Upper Body",
		ImpactAnimations:  []string{"Impact"},
		ImpactBlendTime:   0.1,

		CollisionDisableDelay: 0.1,
		DeathCleanupDelay:     3,
		UseRagdoll:            true,

		BoundsCenter:      mgl64.Vec3{0, 0.9, 0},
		BoundsHalfExtents: mgl64.Vec3{0.35, 0.9, 0.35},
		Skeleton: []config.BoneConfig{
			{Name: "hips", Offset: mgl64.Vec3{0, 1, 0}, HalfExtents: mgl64.Vec3{0.15, 0.1, 0.1}, Mass: 10, LinearDrag: 0.2, AngularDrag: 0.1, Main: true},
			{Name: "head", Offset: mgl64.Vec3{0, 1.7, 0}, HalfExtents: mgl64.Vec3{0.1, 0.1, 0.1}, Mass: 4, LinearDrag: 0.2, AngularDrag: 0.1},
			{Name: "upper_leg_l", Offset: mgl64.Vec3{-0.1, 0.7, 0}, HalfExtents: mgl64.Vec3{0.06, 0.2, 0.06}, Mass: 5, LinearDrag: 0.2, AngularDrag: 0.1},
		},
		Sounds: config.SoundSet{
			Fire:   "soldier_fire",
			Hurt:   []string{"soldier_hurt"},
			Death:  []string{"soldier_death"},
			Volume: 0.7,
		},
	}
}

// zombieArchetype 测试用僵尸原型：不巡逻、不使用布娃娃
func zombieArchetype() *config.CombatantArchetype {
	return &config.CombatantArchetype{
		Kind:              types.CombatantZombie,
		MaxHealth:         5,
		DetectRange:       8,
		AttackRange:       2,
		RoamRange:         10,
		DetectionDelay:    0.5,
		EyeHeight:         0.5,
		LookHeight:        1.14,
		WalkSpeed:         1.5,
		ChaseSpeed:        2.5,
		SampleRadius:      5,
		MaxSampleAttempts: 10,
		IdleTime:          config.FloatRange{Min: 3, Max: 3},
		AttackCooldown:    2,
		AttackDuration:    1,
		AttackImpactTime:  0.5,
		AttackDamage:      10,
		HurtCooldown:      0.2,

		CollisionDisableDelay: 0.1,
		DeathCleanupDelay:     3,
		UseRagdoll:            false,

		BoundsCenter:      mgl64.Vec3{0, 0.9, 0},
		BoundsHalfExtents: mgl64.Vec3{0.35, 0.9, 0.35},
		AnimationVariants: config.AnimationVariants{Walk: 3, Idle: 2, Attack: 2},
		Sounds: config.SoundSet{
			Growl:  []string{"zombie_growl"},
			Attack: []string{"zombie_bite"},
			Death:  []string{"zombie_death"},
			Volume: 1,
		},
	}
}
