package config

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gonewx/horde/pkg/embedded"
)

// BoxConfig 轴对齐盒子（中心 + 半边长）
type BoxConfig struct {
	Center      mgl64.Vec3 `yaml:"center"`
	HalfExtents mgl64.Vec3 `yaml:"halfExtents"`
	Tag         string     `yaml:"tag"`
}

// DamageZoneConfig 伤害区域
type DamageZoneConfig struct {
	BoxConfig `yaml:",inline"`
	Damage    float64 `yaml:"damage"`
	Interval  float64 `yaml:"interval"`
	Sound     string  `yaml:"sound"`
}

// PickupConfig 回血道具
type PickupConfig struct {
	Position mgl64.Vec3 `yaml:"position"`
	Radius   float64    `yaml:"radius"`
	Amount   float64    `yaml:"amount"`
	Sound    string     `yaml:"sound"`
}

// PlayerConfig 玩家目标（被 AI 追击的角色）
type PlayerConfig struct {
	Start         mgl64.Vec3 `yaml:"start"`
	MaxHealth     float64    `yaml:"maxHealth"`
	HalfExtents   mgl64.Vec3 `yaml:"halfExtents"`
	HurtCooldown  float64    `yaml:"hurtCooldown"`
	GameOverDelay float64    `yaml:"gameOverDelay"`
	HurtSound     string     `yaml:"hurtSound"`
	DeathSound    string     `yaml:"deathSound"`
}

// ArenaLayout 场地布局
//
// 配置文件位置: data/arena.yaml
type ArenaLayout struct {
	// 可行走区域（XZ 平面）
	NavMin mgl64.Vec3 `yaml:"navMin"`
	NavMax mgl64.Vec3 `yaml:"navMax"`

	Ground      BoxConfig          `yaml:"ground"`
	Walls       []BoxConfig        `yaml:"walls"`
	SpawnPoints []mgl64.Vec3       `yaml:"spawnPoints"`
	Player      PlayerConfig       `yaml:"player"`
	DamageZones []DamageZoneConfig `yaml:"damageZones"`
	Pickups     []PickupConfig     `yaml:"pickups"`
	WinTrigger  *BoxConfig         `yaml:"winTrigger"`
}

// LoadArena 加载场地布局
func LoadArena(path string) (*ArenaLayout, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read arena file %s: %w", path, err)
	}

	layout, err := ParseArena(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layout, nil
}

// ParseArena 解析并验证场地布局
func ParseArena(data []byte) (*ArenaLayout, error) {
	var layout ArenaLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse arena YAML: %w", err)
	}

	if err := validateArena(&layout); err != nil {
		return nil, fmt.Errorf("invalid arena layout: %w", err)
	}
	return &layout, nil
}

func validateArena(layout *ArenaLayout) error {
	if layout.NavMax.X() <= layout.NavMin.X() || layout.NavMax.Z() <= layout.NavMin.Z() {
		return fmt.Errorf("navMax must exceed navMin on X and Z")
	}
	if len(layout.SpawnPoints) == 0 {
		return fmt.Errorf("at least one spawn point is required")
	}
	if layout.Player.MaxHealth <= 0 {
		return fmt.Errorf("player maxHealth must be positive, got %v", layout.Player.MaxHealth)
	}
	for i, w := range layout.Walls {
		if !positiveExtents(w.HalfExtents) {
			return fmt.Errorf("wall %d: halfExtents must be positive", i)
		}
	}
	for i, z := range layout.DamageZones {
		if !positiveExtents(z.HalfExtents) {
			return fmt.Errorf("damage zone %d: halfExtents must be positive", i)
		}
		if z.Interval <= 0 {
			return fmt.Errorf("damage zone %d: interval must be positive, got %v", i, z.Interval)
		}
	}
	for i, p := range layout.Pickups {
		if p.Radius <= 0 || p.Amount <= 0 {
			return fmt.Errorf("pickup %d: radius and amount must be positive", i)
		}
	}
	return nil
}

func positiveExtents(v mgl64.Vec3) bool {
	return v.X() > 0 && v.Y() > 0 && v.Z() > 0
}
