package entities

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/sandbox"
	"github.com/gonewx/horde/pkg/types"
)

// testArchetype 返回一个最小的士兵原型（两根骨骼，其中一根没有刚体）
func testArchetype() *config.CombatantArchetype {
	return &config.CombatantArchetype{
		Kind:              types.CombatantSoldier,
		MaxHealth:         3,
		DetectRange:       18,
		AttackRange:       12,
		DetectionDelay:    0.5,
		WalkSpeed:         3.5,
		ChaseSpeed:        3.5,
		MaxSampleAttempts: 1,
		ProjectileSpeed:   400,
		HurtCooldown:      0.2,
		BoundsCenter:      mgl64.Vec3{0, 0.9, 0},
		BoundsHalfExtents: mgl64.Vec3{0.35, 0.9, 0.35},
		Skeleton: []config.BoneConfig{
			{Name: "hips", Offset: mgl64.Vec3{0, 1, 0}, HalfExtents: mgl64.Vec3{0.15, 0.1, 0.1}, Mass: 10, Main: true},
			{Name: "weapon", Offset: mgl64.Vec3{0.3, 1.2, 0.2}, NoBody: true},
		},
	}
}

// testScene 测试用的实体管理器、物理世界与导航网格
type testScene struct {
	em    *ecs.EntityManager
	world *sandbox.World
	nav   *sandbox.NavMesh
}

func newTestScene() *testScene {
	return &testScene{
		em:    ecs.NewEntityManager(),
		world: sandbox.NewWorld(),
		nav:   sandbox.NewNavMesh(mgl64.Vec3{-20, 0, -20}, mgl64.Vec3{20, 0, 20}, 0),
	}
}

// setupRecorder 记录 Setup 调用
type setupRecorder struct {
	calls []ecs.EntityID
}

func (r *setupRecorder) Setup(id ecs.EntityID) {
	r.calls = append(r.calls, id)
}
