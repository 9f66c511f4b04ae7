package sandbox

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ecs"
)

// DefaultStoppingDistance 默认停止距离
const DefaultStoppingDistance = 0.1

// NavMesh 平面导航网格
//
// 可行走区域是 XZ 平面上的矩形，障碍物是不可行走的矩形。
// 代理沿直线移动，不做真正的寻路。
type NavMesh struct {
	Min, Max  mgl64.Vec3 // 可行走区域（只使用 X/Z）
	Height    float64    // 可行走平面的高度
	obstacles [][2]mgl64.Vec3
	agents    map[ecs.EntityID]*Agent
}

// NewNavMesh 创建导航网格
func NewNavMesh(min, max mgl64.Vec3, height float64) *NavMesh {
	return &NavMesh{
		Min:    min,
		Max:    max,
		Height: height,
		agents: make(map[ecs.EntityID]*Agent),
	}
}

// AddObstacle 添加不可行走的矩形区域
func (n *NavMesh) AddObstacle(min, max mgl64.Vec3) {
	n.obstacles = append(n.obstacles, [2]mgl64.Vec3{min, max})
}

// Walkable 判断 XZ 平面上的点是否可行走
func (n *NavMesh) Walkable(p mgl64.Vec3) bool {
	if p.X() < n.Min.X() || p.X() > n.Max.X() || p.Z() < n.Min.Z() || p.Z() > n.Max.Z() {
		return false
	}
	for _, o := range n.obstacles {
		if p.X() >= o[0].X() && p.X() <= o[1].X() && p.Z() >= o[0].Z() && p.Z() <= o[1].Z() {
			return false
		}
	}
	return true
}

// Sample 在 center 附近 radius 范围内寻找最近的可行走点
func (n *NavMesh) Sample(center mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	p := mgl64.Vec3{center.X(), n.Height, center.Z()}
	if n.Walkable(p) && math.Abs(center.Y()-n.Height) <= radius {
		return p, true
	}

	// 先夹到可行走矩形内，再检查距离
	clamped := mgl64.Vec3{
		mgl64.Clamp(center.X(), n.Min.X(), n.Max.X()),
		n.Height,
		mgl64.Clamp(center.Z(), n.Min.Z(), n.Max.Z()),
	}
	if n.Walkable(clamped) && clamped.Sub(center).Len() <= radius {
		return clamped, true
	}
	return mgl64.Vec3{}, false
}

// NewAgent 为实体创建导航代理
func (n *NavMesh) NewAgent(id ecs.EntityID, pos mgl64.Vec3, speed float64) *Agent {
	a := &Agent{
		mesh:     n,
		position: pos,
		speed:    speed,
		stopping: DefaultStoppingDistance,
		enabled:  true,
	}
	n.agents[id] = a
	return a
}

// Agent 返回实体的导航代理
func (n *NavMesh) Agent(id ecs.EntityID) (*Agent, bool) {
	a, ok := n.agents[id]
	return a, ok
}

// ReleaseEntity 移除实体的导航代理
func (n *NavMesh) ReleaseEntity(id ecs.EntityID) {
	delete(n.agents, id)
}

// AgentCount 当前代理数量
func (n *NavMesh) AgentCount() int {
	return len(n.agents)
}

// Step 推进所有代理
func (n *NavMesh) Step(dt float64) {
	ids := make([]ecs.EntityID, 0, len(n.agents))
	for id := range n.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		n.agents[id].step(dt)
	}
}

// Agent 导航代理，实现 ports.NavigationPort
type Agent struct {
	mesh        *NavMesh
	position    mgl64.Vec3
	velocity    mgl64.Vec3
	destination mgl64.Vec3
	hasPath     bool
	stopped     bool
	enabled     bool
	speed       float64
	stopping    float64
}

func (a *Agent) step(dt float64) {
	a.velocity = mgl64.Vec3{}
	if !a.enabled || a.stopped || !a.hasPath || dt <= 0 {
		return
	}
	delta := a.destination.Sub(a.position)
	delta[1] = 0
	dist := delta.Len()
	if dist <= 1e-9 {
		a.hasPath = false
		return
	}
	move := a.speed * dt
	if move >= dist {
		a.velocity = delta.Mul(1 / dt)
		a.position = mgl64.Vec3{a.destination.X(), a.position.Y(), a.destination.Z()}
		a.hasPath = false
		return
	}
	a.velocity = delta.Normalize().Mul(a.speed)
	a.position = a.position.Add(a.velocity.Mul(dt))
}

// SetDestination 设置目标点
func (a *Agent) SetDestination(p mgl64.Vec3) {
	if !a.enabled {
		return
	}
	a.destination = p
	a.hasPath = true
}

// Destination 当前目标点
func (a *Agent) Destination() mgl64.Vec3 {
	return a.destination
}

// HasPath 是否有路径
func (a *Agent) HasPath() bool {
	return a.hasPath
}

func (a *Agent) ResetPath() {
	a.hasPath = false
}

// RemainingDistance 到目标点的水平距离，无路径时为 0
func (a *Agent) RemainingDistance() float64 {
	if !a.hasPath {
		return 0
	}
	d := a.destination.Sub(a.position)
	d[1] = 0
	return d.Len()
}

func (a *Agent) StoppingDistance() float64 { return a.stopping }

// SetStoppingDistance 设置停止距离
func (a *Agent) SetStoppingDistance(d float64) { a.stopping = d }

func (a *Agent) PathPending() bool { return false }

func (a *Agent) IsStopped() bool { return a.stopped }

func (a *Agent) SetStopped(stopped bool) { a.stopped = stopped }

func (a *Agent) Speed() float64 { return a.speed }

func (a *Agent) SetSpeed(speed float64) { a.speed = speed }

func (a *Agent) SetEnabled(enabled bool) {
	a.enabled = enabled
	if !enabled {
		a.velocity = mgl64.Vec3{}
	}
}

// Enabled 代理是否启用
func (a *Agent) Enabled() bool { return a.enabled }

func (a *Agent) Position() mgl64.Vec3 { return a.position }

// Warp 直接移动到指定位置
func (a *Agent) Warp(p mgl64.Vec3) {
	a.position = p
	a.hasPath = false
}

func (a *Agent) Velocity() mgl64.Vec3 { return a.velocity }

func (a *Agent) SampleValidPoint(center mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	return a.mesh.Sample(center, radius)
}
