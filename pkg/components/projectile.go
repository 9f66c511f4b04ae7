package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
)

// ProjectileComponent 子弹数据
// 一颗子弹只能结算一次命中，命中后立即失效
type ProjectileComponent struct {
	Owner        ecs.EntityID // 发射者，InvalidEntity 表示无主
	Body         ports.BodyHandle
	Collider     ports.ColliderHandle
	LastPosition mgl64.Vec3 // 上一个物理帧的位置（用于射线扫掠）

	HasHit     bool
	Destroying bool
}
