// Package types 定义共享的基础类型
package types

// CombatantKind 定义 AI 角色的种类
// 与 data/combatants.yaml 中的 archetype 键对应
type CombatantKind string

const (
	// CombatantSoldier 远程士兵：巡游、搜索、开火
	CombatantSoldier CombatantKind = "soldier"
	// CombatantZombie 近战僵尸：待机/巡逻、追击、啃咬
	CombatantZombie CombatantKind = "zombie"
)

// IsValid 检查角色种类是否为已知值
func (k CombatantKind) IsValid() bool {
	return k == CombatantSoldier || k == CombatantZombie
}

// CombatantState AI 状态机状态
type CombatantState int

const (
	// StateIdle 待机（僵尸默认行为之一，士兵找不到巡游点时的后备状态）
	StateIdle CombatantState = iota
	// StatePatrolling 巡逻（仅僵尸）
	StatePatrolling
	// StateRoaming 随机巡游
	StateRoaming
	// StateSeeking 前往目标最后出现的位置（仅士兵）
	StateSeeking
	// StateChasing 追击可见目标
	StateChasing
	// StateAttacking 攻击中
	StateAttacking
	// StateDying 死亡（终态，单向进入）
	StateDying
)

// String 返回状态名称
func (s CombatantState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePatrolling:
		return "Patrolling"
	case StateRoaming:
		return "Roaming"
	case StateSeeking:
		return "Seeking"
	case StateChasing:
		return "Chasing"
	case StateAttacking:
		return "Attacking"
	case StateDying:
		return "Dying"
	default:
		return "Unknown"
	}
}

// SurfaceCategory 子弹命中分类
type SurfaceCategory int

const (
	// SurfaceNone 未分类表面：通用特效
	SurfaceNone SurfaceCategory = iota
	// SurfaceInert 硬表面（混凝土、墙体）：只生成弹孔特效，不造成伤害
	SurfaceInert
)

// 常用碰撞体标签
const (
	TagGround   = "Ground"
	TagConcrete = "Concrete"
	TagEnemy    = "Enemy"
	TagPlayer   = "Player"
)
