package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
)

// PerceptionSystem 视线检测
//
// 对目标包围盒的 8 个角点逐一从观察者眼睛发射射线：
// 射线上存在不远于角点的遮挡物，或角点超出探测距离，该角点记为隐藏。
// 只有全部角点都隐藏时目标才算不可见。
type PerceptionSystem struct {
	entityManager *ecs.EntityManager
	physics       ports.PhysicsPort
}

// NewPerceptionSystem 创建视线检测系统
func NewPerceptionSystem(em *ecs.EntityManager, physics ports.PhysicsPort) *PerceptionSystem {
	return &PerceptionSystem{
		entityManager: em,
		physics:       physics,
	}
}

// HiddenCorners 返回目标被遮挡的角点数和角点总数
//
// 参数:
//   - observer: 观察者实体（需要 TransformComponent）
//   - target: 目标实体（需要 TransformComponent 和 BoundsComponent）
//   - eyeHeight: 眼睛相对观察者脚底的高度
//   - detectRange: 探测距离
//
// 返回:
//   - hidden: 隐藏的角点数
//   - total: 采样角点数，目标缺少组件时为 0
func (s *PerceptionSystem) HiddenCorners(observer, target ecs.EntityID, eyeHeight, detectRange float64) (hidden, total int) {
	obsTransform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, observer)
	if !ok {
		return 0, 0
	}
	targetTransform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, target)
	if !ok {
		return 0, 0
	}
	bounds, ok := ecs.GetComponent[*components.BoundsComponent](s.entityManager, target)
	if !ok {
		return 0, 0
	}

	eye := obsTransform.Position.Add(components.WorldUp.Mul(eyeHeight))
	corners := bounds.Corners(targetTransform.Position)
	for _, corner := range corners {
		dist := corner.Sub(eye).Len()
		if dist > detectRange || s.pointCovered(eye, corner, dist, detectRange, observer, target) {
			hidden++
		}
	}
	return hidden, len(corners)
}

// CanSee 目标是否可见：至少一个角点未被遮挡且在探测距离内
func (s *PerceptionSystem) CanSee(observer, target ecs.EntityID, eyeHeight, detectRange float64) bool {
	if !s.entityManager.Exists(target) || s.entityManager.IsMarkedForDestruction(target) {
		return false
	}
	hidden, total := s.HiddenCorners(observer, target, eyeHeight, detectRange)
	return total > 0 && hidden < total
}

// pointCovered 射线上是否存在不远于角点的遮挡物
// 观察者自身和目标自身的碰撞体不算遮挡
func (s *PerceptionSystem) pointCovered(eye, point mgl64.Vec3, pointDist, detectRange float64, observer, target ecs.EntityID) bool {
	dir := point.Sub(eye)
	if dir.Len() < 1e-9 {
		return false
	}
	hits := s.physics.RaycastAll(eye, dir, detectRange, ports.AllLayers)
	for _, hit := range hits {
		if isSelfOrChild(s.entityManager, hit.Entity, observer) || isSelfOrChild(s.entityManager, hit.Entity, target) {
			continue
		}
		if hit.Point.Sub(eye).Len() <= pointDist {
			return true
		}
	}
	return false
}

// isSelfOrChild 判断 id 是否为 root 本身或其子实体（沿父链向上查找）
func isSelfOrChild(em *ecs.EntityManager, id, root ecs.EntityID) bool {
	for depth := 0; id != ecs.InvalidEntity && depth < 8; depth++ {
		if id == root {
			return true
		}
		parent, ok := ecs.GetComponent[*components.ParentComponent](em, id)
		if !ok {
			return false
		}
		id = parent.Parent
	}
	return false
}
