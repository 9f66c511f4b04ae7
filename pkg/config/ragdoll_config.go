package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gonewx/horde/pkg/embedded"
)

// RagdollConfig 布娃娃死亡序列调参
//
// 配置文件位置: data/ragdoll.yaml
type RagdollConfig struct {
	// 死亡冲击力
	DeathForceMultiplier float64 `yaml:"deathForceMultiplier"`
	UpwardForceBoost     float64 `yaml:"upwardForceBoost"`
	SpinTorqueMultiplier float64 `yaml:"spinTorqueMultiplier"`
	ForceRandomization   float64 `yaml:"forceRandomization"`
	MinimumUpward        float64 `yaml:"minimumUpward"` // 力方向的最小向上分量
	EnableLimbFlailing   bool    `yaml:"enableLimbFlailing"`
	LimbFlailIntensity   float64 `yaml:"limbFlailIntensity"`

	// 局部慢动作
	UseLocalSlowMotion       bool    `yaml:"useLocalSlowMotion"`
	SlowMotionDuration       float64 `yaml:"slowMotionDuration"`
	PeakDelay                float64 `yaml:"peakDelay"` // 激活后到顶点冻结的等待时间
	FreezeAtPeakDuration     float64 `yaml:"freezeAtPeakDuration"`
	SlowMotionDragMultiplier float64 `yaml:"slowMotionDragMultiplier"`
	RestoreVelocityFactor    float64 `yaml:"restoreVelocityFactor"` // 顶点冻结后保留的速度比例
	SlowMotionEasing         string  `yaml:"slowMotionEasing"`      // 阻力恢复曲线名称

	// 冲击响应
	MinimumDeathForce     float64 `yaml:"minimumDeathForce"`
	MaximumDeathForce     float64 `yaml:"maximumDeathForce"`
	EnableGroundBounce    bool    `yaml:"enableGroundBounce"`
	BounceForceMultiplier float64 `yaml:"bounceForceMultiplier"`
	MaxBounces            int     `yaml:"maxBounces"`

	// 戏剧效果
	EnableDramaticFreeze     bool    `yaml:"enableDramaticFreeze"`
	DramaticFreezeDelay      float64 `yaml:"dramaticFreezeDelay"`
	EnableExaggeratedPhysics bool    `yaml:"enableExaggeratedPhysics"`
	ExaggerationMultiplier   float64 `yaml:"exaggerationMultiplier"`

	// 物理初始化
	InitialLinearDrag  float64 `yaml:"initialLinearDrag"`
	InitialAngularDrag float64 `yaml:"initialAngularDrag"`
	MainBodyDrag       float64 `yaml:"mainBodyDrag"` // 施加主冲击前主体骨骼的阻力
	FixedFrame         float64 `yaml:"fixedFrame"`   // 一个物理帧的时长

	// 清理
	CleanupDelay    float64 `yaml:"cleanupDelay"`
	EnableFadeOut   bool    `yaml:"enableFadeOut"`
	FadeOutDuration float64 `yaml:"fadeOutDuration"`

	// 主体骨骼名称匹配（按顺序）
	MainBodyNames []string `yaml:"mainBodyNames"`
}

// knownEasings 与 utils.EasingByName 支持的名称一致
var knownEasings = map[string]bool{
	"linear": true, "inCubic": true, "outCubic": true, "inOutCubic": true, "outQuad": true,
}

// ragdollFile ragdoll.yaml 文件结构
type ragdollFile struct {
	Ragdoll RagdollConfig `yaml:"ragdoll"`
}

// DefaultRagdollConfig 返回默认布娃娃调参
func DefaultRagdollConfig() RagdollConfig {
	return RagdollConfig{
		DeathForceMultiplier: 8,
		UpwardForceBoost:     3,
		SpinTorqueMultiplier: 5,
		ForceRandomization:   0.3,
		MinimumUpward:        0.4,
		EnableLimbFlailing:   true,
		LimbFlailIntensity:   4,

		UseLocalSlowMotion:       true,
		SlowMotionDuration:       2,
		PeakDelay:                0.3,
		FreezeAtPeakDuration:     0.4,
		SlowMotionDragMultiplier: 15,
		RestoreVelocityFactor:    0.7,
		SlowMotionEasing:         "inOutCubic",

		MinimumDeathForce:     12,
		MaximumDeathForce:     25,
		EnableGroundBounce:    true,
		BounceForceMultiplier: 0.6,
		MaxBounces:            2,

		EnableDramaticFreeze:     true,
		DramaticFreezeDelay:      0.1,
		EnableExaggeratedPhysics: true,
		ExaggerationMultiplier:   1.5,

		InitialLinearDrag:  0.1,
		InitialAngularDrag: 0.2,
		MainBodyDrag:       0.1,
		FixedFrame:         0.02,

		CleanupDelay:    12,
		EnableFadeOut:   true,
		FadeOutDuration: 3,

		MainBodyNames: []string{"hips", "pelvis", "spine", "root", "body", "torso"},
	}
}

// LoadRagdoll 加载布娃娃配置，未出现的字段保留默认值
func LoadRagdoll(path string) (*RagdollConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ragdoll file %s: %w", path, err)
	}

	cfg, err := ParseRagdoll(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseRagdoll 在默认值基础上解析布娃娃 YAML 并验证
func ParseRagdoll(data []byte) (*RagdollConfig, error) {
	file := ragdollFile{Ragdoll: DefaultRagdollConfig()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ragdoll YAML: %w", err)
	}

	if err := validateRagdoll(&file.Ragdoll); err != nil {
		return nil, fmt.Errorf("invalid ragdoll config: %w", err)
	}
	return &file.Ragdoll, nil
}

func validateRagdoll(cfg *RagdollConfig) error {
	if cfg.MinimumDeathForce < 0 {
		return fmt.Errorf("minimumDeathForce cannot be negative, got %v", cfg.MinimumDeathForce)
	}
	if cfg.MaximumDeathForce < cfg.MinimumDeathForce {
		return fmt.Errorf("maximumDeathForce %v is below minimumDeathForce %v", cfg.MaximumDeathForce, cfg.MinimumDeathForce)
	}
	if cfg.ForceRandomization < 0 || cfg.ForceRandomization >= 1 {
		return fmt.Errorf("forceRandomization must be within [0, 1), got %v", cfg.ForceRandomization)
	}
	if cfg.MaxBounces < 0 {
		return fmt.Errorf("maxBounces cannot be negative, got %d", cfg.MaxBounces)
	}
	if cfg.SlowMotionDragMultiplier < 1 {
		return fmt.Errorf("slowMotionDragMultiplier must be at least 1, got %v", cfg.SlowMotionDragMultiplier)
	}
	if cfg.UseLocalSlowMotion {
		used := 0.0
		if cfg.FreezeAtPeakDuration > 0 {
			used = cfg.PeakDelay + cfg.FreezeAtPeakDuration
		}
		if cfg.SlowMotionDuration < used {
			return fmt.Errorf("slowMotionDuration %v is shorter than peakDelay+freezeAtPeakDuration %v", cfg.SlowMotionDuration, used)
		}
	}
	if !knownEasings[cfg.SlowMotionEasing] {
		return fmt.Errorf("unknown slowMotionEasing %q", cfg.SlowMotionEasing)
	}
	if cfg.EnableFadeOut && cfg.FadeOutDuration > cfg.CleanupDelay {
		return fmt.Errorf("fadeOutDuration %v exceeds cleanupDelay %v", cfg.FadeOutDuration, cfg.CleanupDelay)
	}
	if cfg.FixedFrame <= 0 {
		return fmt.Errorf("fixedFrame must be positive, got %v", cfg.FixedFrame)
	}
	if cfg.EnableExaggeratedPhysics && cfg.ExaggerationMultiplier <= 0 {
		return fmt.Errorf("exaggerationMultiplier must be positive, got %v", cfg.ExaggerationMultiplier)
	}
	return nil
}
