package entities

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/sandbox"
	"github.com/gonewx/horde/pkg/types"
)

// 动画控制器声明的参数与图层
var (
	combatantAnimParams = []string{
		"Speed", "WalkBlend", "IdleBlend", "AttackBlend",
		"Attack", "Attacking", "Fire", "Death", "Die",
	}
	combatantAnimLayers = []string{"Base Layer", "Upper Body"}
)

// rootBodyMass 角色根节点（运动学胶囊）的质量
const rootBodyMass = 70

// RagdollSetup 布娃娃初始化（由 RagdollSystem 实现）
type RagdollSetup interface {
	Setup(id ecs.EntityID)
}

// NewCombatant 创建 AI 角色实体
//
// 根实体带有运动学刚体和标签为 Enemy 的碰撞体；每根骨骼是一个子实体，
// 带有运动学刚体和碰撞体，与根碰撞体同组（互不产生接触）。
//
// 参数:
//   - em: 实体管理器
//   - world: 物理世界
//   - nav: 导航网格
//   - name: 原型名称
//   - a: 原型参数
//   - pos: 脚底位置
//
// 返回:
//   - ecs.EntityID: 根实体 ID
//   - error: 参数无效时返回错误
func NewCombatant(em *ecs.EntityManager, world *sandbox.World, nav *sandbox.NavMesh, name string, a *config.CombatantArchetype, pos mgl64.Vec3) (ecs.EntityID, error) {
	if em == nil || world == nil || nav == nil {
		return ecs.InvalidEntity, fmt.Errorf("entity manager, world and nav mesh are required")
	}
	if a == nil {
		return ecs.InvalidEntity, fmt.Errorf("archetype %s has no parameters", name)
	}

	id := em.CreateEntity()
	group := uint64(id)

	em.AddComponent(id, components.NewTransform(pos))
	em.AddComponent(id, &components.BoundsComponent{Center: a.BoundsCenter, HalfExtents: a.BoundsHalfExtents})
	em.AddComponent(id, components.NewHealth(a.MaxHealth, a.HurtCooldown))

	rootBody := world.AddBody(sandbox.BodySpec{
		Entity:    id,
		Position:  pos,
		Mass:      rootBodyMass,
		Kinematic: true,
	})
	rootCollider := world.AddCollider(sandbox.ColliderSpec{
		Entity:      id,
		Body:        rootBody,
		Center:      a.BoundsCenter,
		HalfExtents: a.BoundsHalfExtents,
		Tag:         types.TagEnemy,
		Group:       group,
	})
	em.AddComponent(id, &components.ColliderComponent{Collider: rootCollider, Body: rootBody})

	em.AddComponent(id, &components.CombatantComponent{
		Archetype: name,
		Kind:      a.Kind,
		Params:    a,
		State:     types.StateIdle,
		Nav:       nav.NewAgent(id, pos, a.WalkSpeed),
		Anim:      sandbox.NewAnimator(combatantAnimParams, combatantAnimLayers),
		Audio:     sandbox.NewAudioSource(),
	})

	if len(a.Skeleton) > 0 {
		em.AddComponent(id, &components.RagdollComponent{
			Bones:     newBones(em, world, id, group, a.Skeleton, pos),
			FadeAlpha: 1,
		})
	}

	return id, nil
}

// newBones 为每根骨骼创建子实体、刚体和碰撞体
func newBones(em *ecs.EntityManager, world *sandbox.World, root ecs.EntityID, group uint64, skeleton []config.BoneConfig, pos mgl64.Vec3) []components.RagdollBone {
	bones := make([]components.RagdollBone, 0, len(skeleton))
	for _, bc := range skeleton {
		boneID := em.CreateEntity()
		bonePos := pos.Add(bc.Offset)
		em.AddComponent(boneID, &components.ParentComponent{Parent: root})
		em.AddComponent(boneID, components.NewTransform(bonePos))

		bone := components.RagdollBone{
			Name:   bc.Name,
			Entity: boneID,
			IsMain: bc.Main,
			Offset: bc.Offset,
		}
		if !bc.NoBody {
			bone.Body = world.AddBody(sandbox.BodySpec{
				Entity:      boneID,
				Position:    bonePos,
				Mass:        bc.Mass,
				LinearDrag:  bc.LinearDrag,
				AngularDrag: bc.AngularDrag,
				Kinematic:   true,
			})
			bone.Collider = world.AddCollider(sandbox.ColliderSpec{
				Entity:      boneID,
				Body:        bone.Body,
				HalfExtents: bc.HalfExtents,
				Tag:         types.TagEnemy,
				Group:       group,
			})
		}
		bones = append(bones, bone)
	}
	return bones
}

// CombatantSpawner 按原型名创建 AI 角色，实现 systems.CombatantFactory
type CombatantSpawner struct {
	em      *ecs.EntityManager
	world   *sandbox.World
	nav     *sandbox.NavMesh
	configs *config.CombatantsConfig
	ragdoll RagdollSetup
}

// NewCombatantSpawner 创建角色生成器
// ragdoll 可以为 nil（不初始化布娃娃）
func NewCombatantSpawner(em *ecs.EntityManager, world *sandbox.World, nav *sandbox.NavMesh, configs *config.CombatantsConfig, ragdoll RagdollSetup) *CombatantSpawner {
	return &CombatantSpawner{
		em:      em,
		world:   world,
		nav:     nav,
		configs: configs,
		ragdoll: ragdoll,
	}
}

// CreateCombatant 创建指定原型的角色并初始化布娃娃
func (f *CombatantSpawner) CreateCombatant(archetype string, position mgl64.Vec3) (ecs.EntityID, error) {
	a, err := f.configs.Archetype(archetype)
	if err != nil {
		return ecs.InvalidEntity, err
	}
	id, err := NewCombatant(f.em, f.world, f.nav, archetype, a, position)
	if err != nil {
		return ecs.InvalidEntity, fmt.Errorf("failed to create %s: %w", archetype, err)
	}
	if f.ragdoll != nil && ecs.HasComponent[*components.RagdollComponent](f.em, id) {
		f.ragdoll.Setup(id)
	}

	lg := logging.For("CombatantFactory")
	lg.Debug().Uint64("entity", uint64(id)).Str("archetype", archetype).
		Msg("[CombatantFactory] combatant created")
	return id, nil
}

var _ ports.NavigationPort = (*sandbox.Agent)(nil)
