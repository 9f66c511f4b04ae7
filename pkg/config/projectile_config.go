package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gonewx/horde/pkg/embedded"
)

// ProjectileConfig 子弹命中判定与伤害配置
//
// 配置文件位置: data/projectiles.yaml
type ProjectileConfig struct {
	Lifetime           float64 `yaml:"lifetime"`           // 最长存活时间（秒）
	UseRaycastSweep    bool    `yaml:"useRaycastSweep"`    // 高速子弹启用射线扫掠
	MinSpeedForRaycast float64 `yaml:"minSpeedForRaycast"` // 启用扫掠的最低速度
	MinSweepDistance   float64 `yaml:"minSweepDistance"`   // 小于该位移不扫掠
	ImpactForce        float64 `yaml:"impactForce"`        // 传给布娃娃的冲击力
	CombatantDamage    float64 `yaml:"combatantDamage"`    // 命中 AI 角色的伤害
	PlayerDamage       float64 `yaml:"playerDamage"`       // 命中玩家的伤害
	Radius             float64 `yaml:"radius"`             // 子弹碰撞盒半边长
}

type projectileFile struct {
	Projectile ProjectileConfig `yaml:"projectile"`
}

// DefaultProjectileConfig 返回默认子弹配置
func DefaultProjectileConfig() ProjectileConfig {
	return ProjectileConfig{
		Lifetime:           10,
		UseRaycastSweep:    true,
		MinSpeedForRaycast: 10,
		MinSweepDistance:   0.01,
		ImpactForce:        100,
		CombatantDamage:    1,
		PlayerDamage:       15,
		Radius:             0.05,
	}
}

// LoadProjectiles 加载子弹配置
func LoadProjectiles(path string) (*ProjectileConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projectile file %s: %w", path, err)
	}

	cfg, err := ParseProjectiles(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseProjectiles 在默认值基础上解析子弹配置
func ParseProjectiles(data []byte) (*ProjectileConfig, error) {
	file := projectileFile{Projectile: DefaultProjectileConfig()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse projectile YAML: %w", err)
	}

	cfg := &file.Projectile
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("invalid projectile config: lifetime must be positive, got %v", cfg.Lifetime)
	}
	if cfg.CombatantDamage < 0 || cfg.PlayerDamage < 0 {
		return nil, fmt.Errorf("invalid projectile config: damage cannot be negative")
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("invalid projectile config: radius must be positive, got %v", cfg.Radius)
	}
	return cfg, nil
}
