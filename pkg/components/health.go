package components

// HealthComponent 存储实体的生命值与死亡标记
// 用于 AI 角色和玩家目标
//
// Dead 一旦置位，生命值不再改变，死亡流程不再重复执行。
// DeathNotified 与 Dead 相互独立：死亡可能经由多条路径进入，
// 通知刷怪系统只允许发生一次。
type HealthComponent struct {
	Current float64 // 当前生命值
	Max     float64 // 最大生命值

	Dead              bool // 死亡标记
	DeathNotified     bool // 已通知刷怪系统
	DeathEffectPlayed bool // 死亡音效/特效已播放

	HurtCooldown float64 // 受击反馈最小间隔（秒）
	HurtReadyAt  float64 // 下一次允许受击反馈的时间点

	HurtSound   string // 受击音效（玩家）
	DeathSound  string // 死亡音效（玩家）
	CleanupTask uint64 // 动画死亡路径的超时清理任务
}

// NewHealth 创建满血的生命值组件
func NewHealth(max, hurtCooldown float64) *HealthComponent {
	return &HealthComponent{
		Current:      max,
		Max:          max,
		HurtCooldown: hurtCooldown,
	}
}

// IsAtFullHealth 是否满血
func (h *HealthComponent) IsAtFullHealth() bool {
	return h.Current >= h.Max
}

// Percentage 返回生命值百分比 [0, 1]
func (h *HealthComponent) Percentage() float64 {
	if h.Max <= 0 {
		return 0
	}
	return h.Current / h.Max
}
