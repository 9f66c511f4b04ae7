package components

import "github.com/gonewx/horde/pkg/ports"

// PlayerComponent 玩家目标标记
// AI 角色追击与攻击的对象
type PlayerComponent struct {
	GameOverDelay float64
	Audio         ports.AudioPort
}

// DamageZoneComponent 伤害区域：玩家停留期间周期性扣血
type DamageZoneComponent struct {
	Damage   float64
	Interval float64
	Sound    string
	Inside   bool // 玩家当前是否在区域内
}

// HealthPickupComponent 回血道具
type HealthPickupComponent struct {
	Amount   float64
	Radius   float64
	Sound    string
	Consumed bool
}

// WinTriggerComponent 胜利触发区域
type WinTriggerComponent struct {
	Triggered bool
}
