// Package sandbox 提供 pkg/ports 接口的内存实现
//
// 这些实现足以在没有真实引擎的情况下驱动整个模拟核心：
// 轴对齐盒子刚体、射线检测、地面接触、平面导航代理，
// 以及记录所有调用的动画/音频/特效端口，供测试断言使用。
package sandbox

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
)

// DefaultGravity 默认重力加速度
var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

// BodySpec 刚体创建参数
type BodySpec struct {
	Entity      ecs.EntityID
	Position    mgl64.Vec3
	Mass        float64
	LinearDrag  float64
	AngularDrag float64
	Kinematic   bool
	UseGravity  bool
}

// ColliderSpec 碰撞体创建参数
// Body 为 0 时是静态碰撞体，Center 为世界坐标；否则 Center 是相对刚体位置的偏移
type ColliderSpec struct {
	Entity      ecs.EntityID
	Body        ports.BodyHandle
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Tag         string
	Layer       uint
	Group       uint64 // 同组（非 0）碰撞体之间不产生接触
}

type body struct {
	spec        BodySpec
	position    mgl64.Vec3
	velocity    mgl64.Vec3
	angular     mgl64.Vec3
	mass        float64
	linearDrag  float64
	angularDrag float64
	kinematic   bool
	useGravity  bool
}

type collider struct {
	spec    ColliderSpec
	enabled bool
}

type contactKey struct {
	a, b ports.ColliderHandle
}

// World 轴对齐盒子物理世界，实现 ports.PhysicsPort
//
// 刚体没有朝向，角速度只做记录与阻尼衰减。
// 动态刚体与静态碰撞体之间做穿透分离；其他组合只产生接触通知。
type World struct {
	Gravity mgl64.Vec3

	nextBody     ports.BodyHandle
	nextCollider ports.ColliderHandle
	bodies       map[ports.BodyHandle]*body
	colliders    map[ports.ColliderHandle]*collider
	contacts     map[contactKey]bool
	listeners    []func(ports.Collision)
}

// NewWorld 创建空的物理世界
func NewWorld() *World {
	return &World{
		Gravity:   DefaultGravity,
		bodies:    make(map[ports.BodyHandle]*body),
		colliders: make(map[ports.ColliderHandle]*collider),
		contacts:  make(map[contactKey]bool),
	}
}

// AddBody 创建刚体
func (w *World) AddBody(spec BodySpec) ports.BodyHandle {
	w.nextBody++
	mass := spec.Mass
	if mass <= 0 {
		mass = 1
	}
	w.bodies[w.nextBody] = &body{
		spec:        spec,
		position:    spec.Position,
		mass:        mass,
		linearDrag:  spec.LinearDrag,
		angularDrag: spec.AngularDrag,
		kinematic:   spec.Kinematic,
		useGravity:  spec.UseGravity,
	}
	return w.nextBody
}

// AddCollider 创建碰撞体（默认启用）
func (w *World) AddCollider(spec ColliderSpec) ports.ColliderHandle {
	w.nextCollider++
	w.colliders[w.nextCollider] = &collider{spec: spec, enabled: true}
	return w.nextCollider
}

// ReleaseEntity 移除实体拥有的全部刚体和碰撞体
func (w *World) ReleaseEntity(id ecs.EntityID) {
	for h, c := range w.colliders {
		if c.spec.Entity == id {
			delete(w.colliders, h)
			w.dropContacts(h)
		}
	}
	for h, b := range w.bodies {
		if b.spec.Entity == id {
			delete(w.bodies, h)
		}
	}
}

// BodyCount 当前刚体数量
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// ColliderCount 当前碰撞体数量
func (w *World) ColliderCount() int {
	return len(w.colliders)
}

func (w *World) dropContacts(h ports.ColliderHandle) {
	for k := range w.contacts {
		if k.a == h || k.b == h {
			delete(w.contacts, k)
		}
	}
}

// SubscribeCollisions 注册碰撞开始回调
func (w *World) SubscribeCollisions(fn func(ports.Collision)) {
	w.listeners = append(w.listeners, fn)
}

// Step 推进一个物理步长
//
// 顺序：积分速度与位置 → 静态分离 → 接触检测并派发碰撞开始通知。
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}

	for _, h := range w.sortedBodies() {
		b := w.bodies[h]
		if b.kinematic {
			continue
		}
		if b.useGravity {
			b.velocity = b.velocity.Add(w.Gravity.Mul(dt))
		}
		b.velocity = b.velocity.Mul(1 / (1 + b.linearDrag*dt))
		b.angular = b.angular.Mul(1 / (1 + b.angularDrag*dt))
		b.position = b.position.Add(b.velocity.Mul(dt))
	}

	w.resolveStatic()
	w.detectContacts()
}

// resolveStatic 把动态刚体推出静态碰撞体，并消除指向表面内部的速度分量
func (w *World) resolveStatic() {
	for _, ch := range w.sortedColliders() {
		c := w.colliders[ch]
		if !c.enabled || c.spec.Body == 0 {
			continue
		}
		b, ok := w.bodies[c.spec.Body]
		if !ok || b.kinematic {
			continue
		}
		for _, sh := range w.sortedColliders() {
			s := w.colliders[sh]
			if !s.enabled || s.spec.Body != 0 {
				continue
			}
			aMin, aMax := w.colliderBox(c)
			bMin, bMax := w.colliderBox(s)
			normal, depth, hit := penetration(aMin, aMax, bMin, bMax)
			if !hit {
				continue
			}
			b.position = b.position.Add(normal.Mul(depth))
			if vn := b.velocity.Dot(normal); vn < 0 {
				b.velocity = b.velocity.Sub(normal.Mul(vn))
			}
		}
	}
}

// detectContacts 比较本步与上一步的接触集合，为新接触派发通知
func (w *World) detectContacts() {
	current := make(map[contactKey]bool)
	var events []ports.Collision

	handles := w.sortedColliders()
	for _, ah := range handles {
		a := w.colliders[ah]
		if !a.enabled || a.spec.Body == 0 {
			continue
		}
		ab, ok := w.bodies[a.spec.Body]
		if !ok || ab.kinematic {
			continue
		}
		aMin, aMax := w.colliderBox(a)
		// 略微放大，使静止在地面上的刚体保持接触
		skin := mgl64.Vec3{1e-4, 1e-4, 1e-4}
		aMin, aMax = aMin.Sub(skin), aMax.Add(skin)

		for _, bh := range handles {
			if ah == bh {
				continue
			}
			o := w.colliders[bh]
			if !o.enabled || o.spec.Body == a.spec.Body {
				continue
			}
			if a.spec.Group != 0 && a.spec.Group == o.spec.Group {
				continue
			}
			bMin, bMax := w.colliderBox(o)
			if !boxesOverlap(aMin, aMax, bMin, bMax) {
				continue
			}
			key := contactKey{ah, bh}
			current[key] = true
			if w.contacts[key] {
				continue
			}
			normal, _, _ := penetration(aMin, aMax, bMin, bMax)
			events = append(events, ports.Collision{
				Body:        a.spec.Body,
				BodyEntity:  a.spec.Entity,
				Other:       bh,
				OtherEntity: o.spec.Entity,
				OtherTag:    o.spec.Tag,
				Point:       contactPoint(aMin, aMax, bMin, bMax),
				Normal:      normal,
			})
		}
	}
	w.contacts = current

	for _, ev := range events {
		// 回调可能移除碰撞体
		if _, ok := w.colliders[ev.Other]; !ok {
			continue
		}
		for _, fn := range w.listeners {
			fn(ev)
		}
	}
}

func (w *World) colliderBox(c *collider) (mgl64.Vec3, mgl64.Vec3) {
	center := c.spec.Center
	if c.spec.Body != 0 {
		if b, ok := w.bodies[c.spec.Body]; ok {
			center = b.position.Add(c.spec.Center)
		}
	}
	return center.Sub(c.spec.HalfExtents), center.Add(c.spec.HalfExtents)
}

func (w *World) sortedBodies() []ports.BodyHandle {
	hs := make([]ports.BodyHandle, 0, len(w.bodies))
	for h := range w.bodies {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

func (w *World) sortedColliders() []ports.ColliderHandle {
	hs := make([]ports.ColliderHandle, 0, len(w.colliders))
	for h := range w.colliders {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

// RaycastAll 返回射线穿过的全部启用碰撞体，按距离升序
// 起点位于碰撞体内部时该碰撞体不计入结果
func (w *World) RaycastAll(origin, direction mgl64.Vec3, maxDistance float64, mask ports.LayerMask) []ports.RaycastHit {
	if direction.Len() == 0 || maxDistance <= 0 {
		return nil
	}
	dir := direction.Normalize()

	var hits []ports.RaycastHit
	for _, h := range w.sortedColliders() {
		c := w.colliders[h]
		if !c.enabled || mask&(1<<c.spec.Layer) == 0 {
			continue
		}
		mn, mx := w.colliderBox(c)
		t, normal, ok := raySlab(origin, dir, mn, mx)
		if !ok || t > maxDistance {
			continue
		}
		hits = append(hits, ports.RaycastHit{
			Collider: h,
			Entity:   c.spec.Entity,
			Tag:      c.spec.Tag,
			Point:    origin.Add(dir.Mul(t)),
			Normal:   normal,
			Distance: t,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// raySlab 射线与轴对齐盒子求交（slab 算法）
func raySlab(origin, dir, mn, mx mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)
	var normal mgl64.Vec3

	for axis := 0; axis < 3; axis++ {
		o, d := origin[axis], dir[axis]
		if math.Abs(d) < 1e-12 {
			if o < mn[axis] || o > mx[axis] {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1 := (mn[axis] - o) / d
		t2 := (mx[axis] - o) / d
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tmin {
			tmin = t1
			normal = mgl64.Vec3{}
			normal[axis] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}
	if tmin < 0 {
		return 0, mgl64.Vec3{}, false
	}
	return tmin, normal, true
}

func boxesOverlap(aMin, aMax, bMin, bMax mgl64.Vec3) bool {
	return aMax.X() >= bMin.X() && aMin.X() <= bMax.X() &&
		aMax.Y() >= bMin.Y() && aMin.Y() <= bMax.Y() &&
		aMax.Z() >= bMin.Z() && aMin.Z() <= bMax.Z()
}

// penetration 返回把 a 推出 b 的最小分离方向（指向 a 一侧）和深度
func penetration(aMin, aMax, bMin, bMax mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	if !boxesOverlap(aMin, aMax, bMin, bMax) {
		return mgl64.Vec3{}, 0, false
	}
	best := math.Inf(1)
	var normal mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		// a 在 b 的正方向一侧需要移动的距离
		up := bMax[axis] - aMin[axis]
		down := aMax[axis] - bMin[axis]
		if up < best {
			best = up
			normal = mgl64.Vec3{}
			normal[axis] = 1
		}
		if down < best {
			best = down
			normal = mgl64.Vec3{}
			normal[axis] = -1
		}
	}
	return normal, best, true
}

func contactPoint(aMin, aMax, bMin, bMax mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		lo := math.Max(aMin[axis], bMin[axis])
		hi := math.Min(aMax[axis], bMax[axis])
		p[axis] = (lo + hi) / 2
	}
	return p
}

// ApplyImpulse 冲量改变速度（运动学刚体忽略）
func (w *World) ApplyImpulse(h ports.BodyHandle, impulse mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok && !b.kinematic {
		b.velocity = b.velocity.Add(impulse.Mul(1 / b.mass))
	}
}

// ApplyTorque 角冲量改变角速度（单位惯量）
func (w *World) ApplyTorque(h ports.BodyHandle, torque mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok && !b.kinematic {
		b.angular = b.angular.Add(torque.Mul(1 / b.mass))
	}
}

func (w *World) SetKinematic(h ports.BodyHandle, kinematic bool) {
	if b, ok := w.bodies[h]; ok {
		b.kinematic = kinematic
	}
}

func (w *World) IsKinematic(h ports.BodyHandle) bool {
	if b, ok := w.bodies[h]; ok {
		return b.kinematic
	}
	return false
}

func (w *World) SetUseGravity(h ports.BodyHandle, useGravity bool) {
	if b, ok := w.bodies[h]; ok {
		b.useGravity = useGravity
	}
}

// UsesGravity 刚体是否受重力影响
func (w *World) UsesGravity(h ports.BodyHandle) bool {
	if b, ok := w.bodies[h]; ok {
		return b.useGravity
	}
	return false
}

func (w *World) Drag(h ports.BodyHandle) (float64, float64) {
	if b, ok := w.bodies[h]; ok {
		return b.linearDrag, b.angularDrag
	}
	return 0, 0
}

func (w *World) SetDrag(h ports.BodyHandle, linear, angular float64) {
	if b, ok := w.bodies[h]; ok {
		b.linearDrag = linear
		b.angularDrag = angular
	}
}

func (w *World) Mass(h ports.BodyHandle) float64 {
	if b, ok := w.bodies[h]; ok {
		return b.mass
	}
	return 0
}

func (w *World) SetMass(h ports.BodyHandle, mass float64) {
	if b, ok := w.bodies[h]; ok && mass > 0 {
		b.mass = mass
	}
}

func (w *World) Velocity(h ports.BodyHandle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.velocity
	}
	return mgl64.Vec3{}
}

func (w *World) SetVelocity(h ports.BodyHandle, v mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.velocity = v
	}
}

func (w *World) AngularVelocity(h ports.BodyHandle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.angular
	}
	return mgl64.Vec3{}
}

func (w *World) SetAngularVelocity(h ports.BodyHandle, v mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.angular = v
	}
}

func (w *World) BodyPosition(h ports.BodyHandle) mgl64.Vec3 {
	if b, ok := w.bodies[h]; ok {
		return b.position
	}
	return mgl64.Vec3{}
}

func (w *World) SetBodyPosition(h ports.BodyHandle, p mgl64.Vec3) {
	if b, ok := w.bodies[h]; ok {
		b.position = p
	}
}

func (w *World) SetColliderEnabled(h ports.ColliderHandle, enabled bool) {
	if c, ok := w.colliders[h]; ok {
		c.enabled = enabled
		if !enabled {
			w.dropContacts(h)
		}
	}
}

func (w *World) ColliderEnabled(h ports.ColliderHandle) bool {
	if c, ok := w.colliders[h]; ok {
		return c.enabled
	}
	return false
}
