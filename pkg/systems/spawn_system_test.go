package systems

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/entities"
	"github.com/gonewx/horde/pkg/tasks"
)

// fakeFactory 只创建带变换组件的空实体
type fakeFactory struct {
	em      *ecs.EntityManager
	created []ecs.EntityID
	names   []string
	fail    error
}

func (f *fakeFactory) CreateCombatant(archetype string, position mgl64.Vec3) (ecs.EntityID, error) {
	if f.fail != nil {
		return ecs.InvalidEntity, f.fail
	}
	id := f.em.CreateEntity()
	f.em.AddComponent(id, components.NewTransform(position))
	f.created = append(f.created, id)
	f.names = append(f.names, archetype)
	return id, nil
}

// fakeScore 记录得分调用
type fakeScore struct {
	score int
	kills int
	round int
}

func (s *fakeScore) AddScore(points int) { s.score += points }
func (s *fakeScore) AddKill()            { s.kills++ }
func (s *fakeScore) SetRound(round int)  { s.round = round }

type spawnFixture struct {
	em        *ecs.EntityManager
	scheduler *tasks.Scheduler
	factory   *fakeFactory
	score     *fakeScore
	spawner   *SpawnSystem
}

func newSpawnFixture(mode config.SpawnMode, enemyCap int, spawnPoints int) *spawnFixture {
	em := ecs.NewEntityManager()
	for i := 0; i < spawnPoints; i++ {
		entities.NewSpawnPoint(em, "spawn", mgl64.Vec3{float64(i * 5), 0, 10})
	}
	rules := &config.SpawnRulesConfig{
		Mode:         mode,
		Interval:     1,
		EnemyCap:     enemyCap,
		WaveScale:    0.5,
		ScorePerKill: 100,
		Archetypes:   []config.WeightedArchetype{{Name: "zombie", Weight: 1}},
	}
	f := &spawnFixture{
		em:        em,
		scheduler: tasks.NewScheduler(),
		factory:   &fakeFactory{em: em},
		score:     &fakeScore{},
	}
	f.spawner = NewSpawnSystem(em, f.scheduler, rules, f.factory, nil, f.score, rand.New(rand.NewSource(1)))
	return f
}

// TestSpawn_WaveSchedule 第一波目标为 5，每隔 interval 刷出一只
func TestSpawn_WaveSchedule(t *testing.T) {
	f := newSpawnFixture(config.SpawnModeWaves, 10, 2)
	var started []int
	f.spawner.OnWaveStarted(func(wave, target int) { started = append(started, wave*100+target) })

	f.spawner.StartGame()
	if f.spawner.Wave() != 1 || f.spawner.WaveTarget() != 5 {
		t.Fatalf("wave/target = %d/%d, want 1/5", f.spawner.Wave(), f.spawner.WaveTarget())
	}
	if len(f.factory.created) != 0 {
		t.Fatal("wave mode should wait one interval before the first spawn")
	}

	for i := 1; i <= 5; i++ {
		f.scheduler.Update(1)
		if len(f.factory.created) != i {
			t.Fatalf("after %ds spawned = %d, want %d", i, len(f.factory.created), i)
		}
	}
	if !f.spawner.SpawningComplete() {
		t.Error("spawning should be complete after the wave target")
	}
	if f.scheduler.Pending(ecs.InvalidEntity, tasks.GroupSpawner) != 0 {
		t.Error("spawn timer should stop once the wave is spawned")
	}

	f.scheduler.Update(5)
	if len(f.factory.created) != 5 {
		t.Errorf("spawned = %d after wave complete, want 5", len(f.factory.created))
	}
	if f.spawner.Wave() != 1 {
		t.Errorf("wave = %d, want 1 while combatants are alive", f.spawner.Wave())
	}
	if len(started) != 1 || started[0] != 105 || f.score.round != 1 {
		t.Errorf("wave started events = %v, round = %d", started, f.score.round)
	}
}

// TestSpawn_WaveAdvancesOnlyWhenCompleteAndCleared 只有刷完且全部死亡才进入下一波
func TestSpawn_WaveAdvancesOnlyWhenCompleteAndCleared(t *testing.T) {
	f := newSpawnFixture(config.SpawnModeWaves, 10, 1)
	var completed []int
	f.spawner.OnWaveCompleted(func(wave int) { completed = append(completed, wave) })
	f.spawner.StartGame()

	// 刷完之前全部击杀不会推进波次
	f.scheduler.Update(1)
	f.scheduler.Update(1)
	for _, id := range f.factory.created {
		f.spawner.NotifyDeath(id)
	}
	if f.spawner.LiveCount() != 0 || f.spawner.Wave() != 1 {
		t.Fatalf("live/wave = %d/%d, want 0/1", f.spawner.LiveCount(), f.spawner.Wave())
	}

	for i := 0; i < 3; i++ {
		f.scheduler.Update(1)
	}
	if !f.spawner.SpawningComplete() || f.spawner.LiveCount() != 3 {
		t.Fatalf("complete/live = %v/%d, want true/3", f.spawner.SpawningComplete(), f.spawner.LiveCount())
	}

	ids := f.factory.created[2:]
	f.spawner.NotifyDeath(ids[0])
	f.spawner.NotifyDeath(ids[1])
	if f.spawner.Wave() != 1 {
		t.Fatal("wave should not advance while a combatant is alive")
	}
	f.spawner.NotifyDeath(ids[2])

	if f.spawner.Wave() != 2 || f.spawner.WaveTarget() != 10 {
		t.Errorf("wave/target = %d/%d, want 2/10", f.spawner.Wave(), f.spawner.WaveTarget())
	}
	if len(completed) != 1 || completed[0] != 1 {
		t.Errorf("completed waves = %v, want [1]", completed)
	}
	if f.score.kills != 5 || f.score.score != 500 || f.score.round != 2 {
		t.Errorf("score = %+v, want 5 kills / 500 / round 2", f.score)
	}
	if f.spawner.SpawnedInWave() != 0 || f.spawner.SpawningComplete() {
		t.Error("new wave should reset the spawn counters")
	}
}

// TestSpawn_NotifyDeathOncePerCombatant 未登记或重复的死亡通知被忽略
func TestSpawn_NotifyDeathOncePerCombatant(t *testing.T) {
	f := newSpawnFixture(config.SpawnModeWaves, 10, 1)
	var died []ecs.EntityID
	f.spawner.OnCombatantDied(func(id ecs.EntityID) { died = append(died, id) })
	f.spawner.StartGame()
	f.scheduler.Update(1)

	id := f.factory.created[0]
	f.spawner.NotifyDeath(id)
	f.spawner.NotifyDeath(id)
	f.spawner.NotifyDeath(9999)

	if f.score.kills != 1 || len(died) != 1 {
		t.Errorf("kills = %d, died callbacks = %d; want 1, 1", f.score.kills, len(died))
	}
	if f.spawner.IsLive(id) {
		t.Error("dead combatant should leave the registry")
	}
}

// TestSpawn_Endless 无尽模式立即刷出、遵守上限、清空时紧急补刷
func TestSpawn_Endless(t *testing.T) {
	f := newSpawnFixture(config.SpawnModeEndless, 3, 2)
	f.spawner.StartGame()

	if f.spawner.LiveCount() != 1 {
		t.Fatalf("endless mode should spawn immediately, live = %d", f.spawner.LiveCount())
	}

	f.scheduler.Update(1)
	f.scheduler.Update(1)
	f.scheduler.Update(1)
	if f.spawner.LiveCount() != 3 {
		t.Fatalf("live = %d, want cap 3", f.spawner.LiveCount())
	}

	f.spawner.NotifyDeath(f.factory.created[0])
	f.scheduler.Update(1)
	if f.spawner.LiveCount() != 3 || len(f.factory.created) != 4 {
		t.Fatalf("live/created = %d/%d, want 3/4", f.spawner.LiveCount(), len(f.factory.created))
	}

	for _, id := range f.factory.created[1:] {
		f.spawner.NotifyDeath(id)
	}
	if f.spawner.LiveCount() != 1 || len(f.factory.created) != 5 {
		t.Errorf("emergency spawn: live/created = %d/%d, want 1/5", f.spawner.LiveCount(), len(f.factory.created))
	}
	if f.spawner.Wave() != 0 {
		t.Error("endless mode has no waves")
	}
}

// TestSpawn_NoSpawnPoints 没有刷怪点时停止刷怪
func TestSpawn_NoSpawnPoints(t *testing.T) {
	tests := []struct {
		name string
		mode config.SpawnMode
	}{
		{name: "波次模式", mode: config.SpawnModeWaves},
		{name: "无尽模式", mode: config.SpawnModeEndless},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSpawnFixture(tt.mode, 4, 0)
			f.spawner.StartGame()
			f.scheduler.Update(1)

			if f.spawner.IsRunning() {
				t.Error("spawner should stop without spawn points")
			}
			if f.scheduler.Pending(ecs.InvalidEntity, tasks.GroupSpawner) != 0 {
				t.Error("spawn timer should be cancelled")
			}
			if len(f.factory.created) != 0 {
				t.Errorf("created = %d, want 0", len(f.factory.created))
			}
		})
	}
}

// TestSpawn_FactoryFailureIsNotCounted 创建失败不计入本波数量
func TestSpawn_FactoryFailureIsNotCounted(t *testing.T) {
	f := newSpawnFixture(config.SpawnModeWaves, 10, 1)
	f.factory.fail = errors.New("boom")
	f.spawner.StartGame()

	f.scheduler.Update(1)
	f.scheduler.Update(1)
	if f.spawner.SpawnedInWave() != 0 || f.spawner.LiveCount() != 0 {
		t.Errorf("spawned/live = %d/%d, want 0/0", f.spawner.SpawnedInWave(), f.spawner.LiveCount())
	}
	if !f.spawner.IsRunning() {
		t.Error("factory errors should not stop the spawner")
	}

	f.factory.fail = nil
	f.scheduler.Update(1)
	if f.spawner.SpawnedInWave() != 1 {
		t.Errorf("spawned = %d, want 1 after recovery", f.spawner.SpawnedInWave())
	}
}

// TestSpawn_GameOver 游戏结束时清空登记表并销毁存活角色
func TestSpawn_GameOver(t *testing.T) {
	f := newSpawnFixture(config.SpawnModeWaves, 10, 1)
	f.spawner.StartGame()
	f.scheduler.Update(1)
	f.scheduler.Update(1)

	f.spawner.GameOver()
	if f.spawner.IsRunning() || f.spawner.LiveCount() != 0 {
		t.Errorf("running/live = %v/%d, want false/0", f.spawner.IsRunning(), f.spawner.LiveCount())
	}
	for _, id := range f.factory.created {
		if !ecs.HasComponent[*components.DestroyRequestComponent](f.em, id) {
			t.Errorf("entity %d should be scheduled for destruction", id)
		}
	}

	// 结束后的死亡通知不再计分
	f.spawner.NotifyDeath(f.factory.created[0])
	if f.score.kills != 0 {
		t.Errorf("kills = %d, want 0", f.score.kills)
	}
}

// TestSpawn_RealCombatantsReportDeath 真实角色死亡经由生命值系统通知刷怪系统
func TestSpawn_RealCombatantsReportDeath(t *testing.T) {
	w := newTestWorld(t)
	entities.NewSpawnPoint(w.em, "spawn", mgl64.Vec3{0, 0, 5})
	cfg := &config.CombatantsConfig{Archetypes: map[string]config.CombatantArchetype{
		"zombie": *zombieArchetype(),
	}}
	factory := entities.NewCombatantSpawner(w.em, w.physics, w.nav, cfg, w.ragdoll)
	rules := &config.SpawnRulesConfig{
		Mode:         config.SpawnModeEndless,
		Interval:     1,
		EnemyCap:     2,
		WaveScale:    0.5,
		ScorePerKill: 100,
		Archetypes:   []config.WeightedArchetype{{Name: "zombie", Weight: 1}},
	}
	score := &fakeScore{}
	spawner := NewSpawnSystem(w.em, w.scheduler, rules, factory, w.combatants, score, w.rng)
	w.health.SetDeathNotifier(spawner)

	var spawned []ecs.EntityID
	spawner.OnSpawned(func(id ecs.EntityID, archetype string) {
		if archetype != "zombie" {
			t.Errorf("archetype = %q, want zombie", archetype)
		}
		spawned = append(spawned, id)
	})
	spawner.StartGame()
	if len(spawned) != 1 {
		t.Fatalf("spawned = %d, want 1", len(spawned))
	}
	if w.scheduler.Pending(spawned[0], groupPerception) != 1 {
		t.Error("spawned combatant should be registered with the state machine")
	}

	w.run(1)
	if spawner.LiveCount() != 2 {
		t.Fatalf("live = %d, want 2", spawner.LiveCount())
	}

	w.health.ApplyDamage(spawned[0], 100)
	w.health.Die(spawned[0])
	if spawner.LiveCount() != 1 || score.kills != 1 {
		t.Errorf("live/kills = %d/%d, want 1/1", spawner.LiveCount(), score.kills)
	}
}
