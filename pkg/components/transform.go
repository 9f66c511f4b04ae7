package components

import (
	"github.com/go-gl/mathgl/mgl64"
)

// 世界坐标约定：Y 轴向上，+Z 为实体的正前方
var (
	WorldUp      = mgl64.Vec3{0, 1, 0}
	WorldForward = mgl64.Vec3{0, 0, 1}
)

// TransformComponent 存储实体在世界中的位置和朝向
// 角色的 Position 位于脚底
type TransformComponent struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform 创建位于 pos、朝向为单位四元数的变换
func NewTransform(pos mgl64.Vec3) *TransformComponent {
	return &TransformComponent{
		Position: pos,
		Rotation: mgl64.QuatIdent(),
	}
}

// Forward 返回实体的正前方方向
func (t *TransformComponent) Forward() mgl64.Vec3 {
	return t.Rotation.Rotate(WorldForward)
}
