// Package ports 定义模拟核心所依赖的外部引擎服务接口
//
// 核心逻辑（AI 状态机、布娃娃、子弹命中、刷怪）只通过这些接口与导航、
// 动画、物理、音频、特效交互。pkg/sandbox 提供内存实现，宿主引擎可以
// 提供自己的实现。
package ports

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ecs"
)

// BodyHandle 刚体句柄，0 表示无效
type BodyHandle uint32

// ColliderHandle 碰撞体句柄，0 表示无效
type ColliderHandle uint32

// LayerMask 射线检测层掩码
type LayerMask uint32

// AllLayers 所有层
const AllLayers LayerMask = ^LayerMask(0)

// RaycastHit 射线命中信息
type RaycastHit struct {
	Collider ColliderHandle
	Entity   ecs.EntityID // 碰撞体所属实体（骨骼、角色根节点或静态表面）
	Tag      string       // 碰撞体标签（例如 "Ground"）
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Collision 碰撞开始通知
// Body 是发生碰撞的动态刚体，Other 是被碰到的碰撞体
type Collision struct {
	Body        BodyHandle
	BodyEntity  ecs.EntityID
	Other       ColliderHandle
	OtherEntity ecs.EntityID
	OtherTag    string
	Point       mgl64.Vec3
	Normal      mgl64.Vec3
}

// NavigationPort 导航网格代理（每个角色一个）
type NavigationPort interface {
	SetDestination(point mgl64.Vec3)
	ResetPath()
	RemainingDistance() float64
	StoppingDistance() float64
	PathPending() bool
	IsStopped() bool
	SetStopped(stopped bool)
	Speed() float64
	SetSpeed(speed float64)
	SetEnabled(enabled bool)
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
	// SampleValidPoint 在 center 附近 radius 范围内寻找可行走的点
	SampleValidPoint(center mgl64.Vec3, radius float64) (mgl64.Vec3, bool)
}

// AnimationPort 动画控制器（每个角色一个）
type AnimationPort interface {
	PlayState(name string, layer int, blendTime float64)
	SetFloat(param string, value float64)
	SetBool(param string, value bool)
	SetTrigger(param string)
	HasParameter(name string) bool
	LayerIndex(name string) int
	SetEnabled(enabled bool)
	Enabled() bool
}

// PhysicsPort 物理世界（全局共享）
type PhysicsPort interface {
	RaycastAll(origin, direction mgl64.Vec3, maxDistance float64, mask LayerMask) []RaycastHit

	ApplyImpulse(body BodyHandle, impulse mgl64.Vec3)
	ApplyTorque(body BodyHandle, torque mgl64.Vec3)

	SetKinematic(body BodyHandle, kinematic bool)
	IsKinematic(body BodyHandle) bool
	SetUseGravity(body BodyHandle, useGravity bool)

	Drag(body BodyHandle) (linear, angular float64)
	SetDrag(body BodyHandle, linear, angular float64)
	Mass(body BodyHandle) float64
	SetMass(body BodyHandle, mass float64)

	Velocity(body BodyHandle) mgl64.Vec3
	SetVelocity(body BodyHandle, v mgl64.Vec3)
	AngularVelocity(body BodyHandle) mgl64.Vec3
	SetAngularVelocity(body BodyHandle, v mgl64.Vec3)

	BodyPosition(body BodyHandle) mgl64.Vec3
	SetBodyPosition(body BodyHandle, p mgl64.Vec3)

	SetColliderEnabled(collider ColliderHandle, enabled bool)
	ColliderEnabled(collider ColliderHandle) bool

	// SubscribeCollisions 注册碰撞开始回调，回调在物理步进中同步触发
	SubscribeCollisions(fn func(Collision))
}

// AudioPort 音频源（每个角色一个）
type AudioPort interface {
	PlayOneShot(clip string, volume float64)
	PlayAtPoint(clip string, position mgl64.Vec3, volume float64)
	Stop()
}

// EffectKind 特效类型
type EffectKind int

const (
	// EffectBlood 命中角色的血花
	EffectBlood EffectKind = iota
	// EffectImpact 命中硬表面的弹孔/碎屑
	EffectImpact
	// EffectGeneric 未分类表面的通用特效
	EffectGeneric
	// EffectMuzzleFlash 枪口火光
	EffectMuzzleFlash
)

// String 返回特效类型名称（用于日志和指标属性）
func (k EffectKind) String() string {
	switch k {
	case EffectBlood:
		return "blood"
	case EffectImpact:
		return "impact"
	case EffectGeneric:
		return "generic"
	case EffectMuzzleFlash:
		return "muzzle_flash"
	default:
		return "unknown"
	}
}

// EffectsPort 特效生成（全局共享）
type EffectsPort interface {
	SpawnEffect(kind EffectKind, point, normal mgl64.Vec3)
}
