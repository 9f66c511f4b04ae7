package components

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/ports"
	"github.com/gonewx/horde/pkg/types"
)

// CombatantComponent AI 角色的状态机数据
//
// Target 是弱引用：角色从不拥有目标，每次使用前都要检查目标是否还存在。
type CombatantComponent struct {
	Archetype string
	Kind      types.CombatantKind
	Params    *config.CombatantArchetype

	State types.CombatantState

	Target            ecs.EntityID // 当前攻击目标，InvalidEntity 表示无目标
	LastKnownPosition mgl64.Vec3

	AttackTimer     float64 // 攻击冷却计时，必须归零才能再次攻击
	IsAttacking     bool    // 攻击动画进行中
	ImpactDelivered bool    // 本次近战攻击的伤害已结算

	MuzzleFlashActive bool
	IsMoving          bool // 上一帧是否在移动（用于切换移动动画变体）
	PatrolTarget      mgl64.Vec3

	// 外部服务（构造时注入）
	Nav   ports.NavigationPort
	Anim  ports.AnimationPort
	Audio ports.AudioPort
}

// IsDying 是否已进入终态
func (c *CombatantComponent) IsDying() bool {
	return c.State == types.StateDying
}

// HasTarget 是否持有攻击目标
func (c *CombatantComponent) HasTarget() bool {
	return c.Target != ecs.InvalidEntity
}
