package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
)

// RagdollBone 单根布娃娃骨骼
type RagdollBone struct {
	Name     string
	Entity   ecs.EntityID
	Body     ports.BodyHandle     // 0 表示没有刚体
	Collider ports.ColliderHandle // 0 表示没有碰撞体
	IsMain   bool
	Offset   mgl64.Vec3 // 相对角色根节点的偏移（未激活时跟随根节点）

	// 基线物理属性（激活前记录，停用时恢复）
	BaseMass        float64
	BaseLinearDrag  float64
	BaseAngularDrag float64
	BaseKinematic   bool
	BaseCollider    bool

	// 冻结前的速度
	StoredVelocity        mgl64.Vec3
	StoredAngularVelocity mgl64.Vec3

	Bounces int // 已触发的地面反弹次数
}

// HasBody 骨骼是否带有刚体
func (b *RagdollBone) HasBody() bool {
	return b.Body != 0
}

// RagdollComponent 布娃娃控制数据
type RagdollComponent struct {
	Bones []RagdollBone

	Active       bool
	InSlowMotion bool
	Fading       bool

	// 最近一次命中信息（死亡时用于决定冲击方向）
	LastHitDirection mgl64.Vec3
	LastHitForce     float64
	LastHitPoint     mgl64.Vec3

	// 激活后的冲击参数
	ActiveDirection mgl64.Vec3
	ActiveForce     float64

	// 慢动作阻力插值
	SlowBlendActive   bool
	SlowBlendElapsed  float64
	SlowBlendDuration float64

	// 淡出
	FadeElapsed float64
	FadeAlpha   float64

	BaseAnimatorEnabled bool
}

// MainBone 返回主体骨骼下标，-1 表示未解析
func (r *RagdollComponent) MainBone() int {
	for i := range r.Bones {
		if r.Bones[i].IsMain && r.Bones[i].HasBody() {
			return i
		}
	}
	return -1
}

// BoneByBody 根据刚体句柄查找骨骼
func (r *RagdollComponent) BoneByBody(body ports.BodyHandle) *RagdollBone {
	if body == 0 {
		return nil
	}
	for i := range r.Bones {
		if r.Bones[i].Body == body {
			return &r.Bones[i]
		}
	}
	return nil
}
