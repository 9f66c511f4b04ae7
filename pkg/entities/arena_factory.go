package entities

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/sandbox"
	"github.com/gonewx/horde/pkg/types"
)

// inertTags 子弹命中后只产生弹孔特效的表面标签
var inertTags = map[string]bool{
	types.TagConcrete: true,
	"Crate":           true,
}

// NewSurface 创建静态表面（地面、墙体、箱子）
// 非地面表面同时作为导航障碍
func NewSurface(em *ecs.EntityManager, world *sandbox.World, nav *sandbox.NavMesh, box config.BoxConfig) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransform(box.Center))
	em.AddComponent(id, &components.BoundsComponent{HalfExtents: box.HalfExtents})

	category := types.SurfaceNone
	if inertTags[box.Tag] {
		category = types.SurfaceInert
	}
	em.AddComponent(id, &components.SurfaceComponent{Tag: box.Tag, Category: category})

	collider := world.AddCollider(sandbox.ColliderSpec{
		Entity:      id,
		Center:      box.Center,
		HalfExtents: box.HalfExtents,
		Tag:         box.Tag,
	})
	em.AddComponent(id, &components.ColliderComponent{Collider: collider})

	if nav != nil && box.Tag != types.TagGround {
		nav.AddObstacle(box.Center.Sub(box.HalfExtents), box.Center.Add(box.HalfExtents))
	}
	return id
}

// NewSpawnPoint 创建刷怪点
func NewSpawnPoint(em *ecs.EntityManager, name string, pos mgl64.Vec3) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransform(pos))
	em.AddComponent(id, &components.SpawnPointComponent{Name: name})
	return id
}

// NewPlayer 创建玩家目标
// 玩家带有标签为 Player 的运动学碰撞体，可以被子弹命中
func NewPlayer(em *ecs.EntityManager, world *sandbox.World, cfg config.PlayerConfig, audio ports.AudioPort) (ecs.EntityID, error) {
	if cfg.MaxHealth <= 0 {
		return ecs.InvalidEntity, fmt.Errorf("player maxHealth must be positive, got %v", cfg.MaxHealth)
	}

	id := em.CreateEntity()
	center := mgl64.Vec3{0, cfg.HalfExtents.Y(), 0}

	em.AddComponent(id, components.NewTransform(cfg.Start))
	em.AddComponent(id, &components.BoundsComponent{Center: center, HalfExtents: cfg.HalfExtents})

	health := components.NewHealth(cfg.MaxHealth, cfg.HurtCooldown)
	health.HurtSound = cfg.HurtSound
	health.DeathSound = cfg.DeathSound
	em.AddComponent(id, health)
	em.AddComponent(id, &components.PlayerComponent{GameOverDelay: cfg.GameOverDelay, Audio: audio})

	body := world.AddBody(sandbox.BodySpec{Entity: id, Position: cfg.Start, Mass: rootBodyMass, Kinematic: true})
	collider := world.AddCollider(sandbox.ColliderSpec{
		Entity:      id,
		Body:        body,
		Center:      center,
		HalfExtents: cfg.HalfExtents,
		Tag:         types.TagPlayer,
		Group:       uint64(id),
	})
	em.AddComponent(id, &components.ColliderComponent{Collider: collider, Body: body})
	return id, nil
}

// NewDamageZone 创建伤害区域
func NewDamageZone(em *ecs.EntityManager, cfg config.DamageZoneConfig) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransform(cfg.Center))
	em.AddComponent(id, &components.BoundsComponent{HalfExtents: cfg.HalfExtents})
	em.AddComponent(id, &components.DamageZoneComponent{
		Damage:   cfg.Damage,
		Interval: cfg.Interval,
		Sound:    cfg.Sound,
	})
	return id
}

// NewHealthPickup 创建回血道具
func NewHealthPickup(em *ecs.EntityManager, cfg config.PickupConfig) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransform(cfg.Position))
	em.AddComponent(id, &components.HealthPickupComponent{
		Amount: cfg.Amount,
		Radius: cfg.Radius,
		Sound:  cfg.Sound,
	})
	return id
}

// NewWinTrigger 创建胜利触发区域
func NewWinTrigger(em *ecs.EntityManager, box config.BoxConfig) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransform(box.Center))
	em.AddComponent(id, &components.BoundsComponent{HalfExtents: box.HalfExtents})
	em.AddComponent(id, &components.WinTriggerComponent{})
	return id
}
