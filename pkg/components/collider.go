package components

import (
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/types"
)

// ColliderComponent 实体自身的碰撞体（角色根节点、玩家、墙体）
type ColliderComponent struct {
	Collider ports.ColliderHandle
	Body     ports.BodyHandle
}

// ParentComponent 层级关系：骨骼实体指向所属角色
// 命中判定沿父链向上查找可受伤组件
type ParentComponent struct {
	Parent ecs.EntityID
}

// SurfaceComponent 静态表面（地面、墙体、箱子）
type SurfaceComponent struct {
	Tag      string
	Category types.SurfaceCategory
}

// SpawnPointComponent 刷怪点
type SpawnPointComponent struct {
	Name string
}
