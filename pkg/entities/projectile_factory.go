package entities

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/sandbox"
)

// projectileMass 子弹质量
const projectileMass = 0.01

// NewProjectile 创建子弹实体
//
// 子弹是不受重力影响的动态刚体，沿 rotation 的正前方以 speed 飞行，
// 超过 cfg.Lifetime 后由生命周期系统销毁。
func NewProjectile(em *ecs.EntityManager, world *sandbox.World, cfg config.ProjectileConfig, owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID {
	id := em.CreateEntity()

	tr := components.NewTransform(origin)
	tr.Rotation = rotation
	em.AddComponent(id, tr)

	body := world.AddBody(sandbox.BodySpec{
		Entity:   id,
		Position: origin,
		Mass:     projectileMass,
	})
	world.SetVelocity(body, tr.Forward().Mul(speed))

	r := cfg.Radius
	collider := world.AddCollider(sandbox.ColliderSpec{
		Entity:      id,
		Body:        body,
		HalfExtents: mgl64.Vec3{r, r, r},
		Tag:         "Projectile",
	})

	em.AddComponent(id, &components.ProjectileComponent{
		Owner:        owner,
		Body:         body,
		Collider:     collider,
		LastPosition: origin,
	})
	em.AddComponent(id, &components.LifetimeComponent{MaxLifetime: cfg.Lifetime})
	return id
}

// ProjectileSpawner 返回绑定到物理世界的子弹工厂函数（systems.ProjectileFactory）
func ProjectileSpawner(em *ecs.EntityManager, world *sandbox.World, cfg config.ProjectileConfig) func(owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID {
	return func(owner ecs.EntityID, origin mgl64.Vec3, rotation mgl64.Quat, speed float64) ecs.EntityID {
		return NewProjectile(em, world, cfg, owner, origin, rotation, speed)
	}
}
