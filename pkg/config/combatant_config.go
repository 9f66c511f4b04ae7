package config

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gonewx/horde/pkg/embedded"
	"github.com/gonewx/horde/pkg/types"
)

// BoneConfig 布娃娃骨骼定义
// Offset 为骨骼中心相对角色根节点的偏移
type BoneConfig struct {
	Name        string     `yaml:"name"`
	Offset      mgl64.Vec3 `yaml:"offset"`
	HalfExtents mgl64.Vec3 `yaml:"halfExtents"`
	Mass        float64    `yaml:"mass"`
	LinearDrag  float64    `yaml:"linearDrag"`
	AngularDrag float64    `yaml:"angularDrag"`
	Main        bool       `yaml:"main"` // 主体骨骼（力的施加点）
	NoBody      bool       `yaml:"noBody"`
}

// SoundSet 角色音效片段名
type SoundSet struct {
	Fire   string   `yaml:"fire"`
	Hurt   []string `yaml:"hurt"`
	Death  []string `yaml:"death"`
	Growl  []string `yaml:"growl"`
	Attack []string `yaml:"attack"`
	Idle   []string `yaml:"idle"`
	Volume float64  `yaml:"volume"`
}

// AnimationVariants 各状态的随机动画变体数量
type AnimationVariants struct {
	Walk   int `yaml:"walk"`
	Idle   int `yaml:"idle"`
	Attack int `yaml:"attack"`
}

// FloatRange 闭区间
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// CombatantArchetype 单个角色原型的全部调参
type CombatantArchetype struct {
	Kind types.CombatantKind `yaml:"kind"`

	MaxHealth float64 `yaml:"maxHealth"`

	// 感知
	DetectRange    float64 `yaml:"detectRange"`
	AttackRange    float64 `yaml:"attackRange"`
	RoamRange      float64 `yaml:"roamRange"`
	DetectionDelay float64 `yaml:"detectionDelay"` // 感知轮询间隔（秒）
	EyeHeight      float64 `yaml:"eyeHeight"`
	LookHeight     float64 `yaml:"lookHeight"` // 瞄准点相对目标根节点的高度
	TurnSpeed      float64 `yaml:"turnSpeed"`  // 朝向插值速度

	// 导航
	WalkSpeed         float64 `yaml:"walkSpeed"`
	ChaseSpeed        float64 `yaml:"chaseSpeed"`
	SampleRadius      float64 `yaml:"sampleRadius"`      // 随机点可行走采样半径
	MaxSampleAttempts int     `yaml:"maxSampleAttempts"` // 随机点最大重试次数
	SeekTimeout       float64 `yaml:"seekTimeout"`       // 搜索放弃时间（仅 soldier）

	// 巡逻（仅 zombie）
	UseRandomPatrolling bool       `yaml:"useRandomPatrolling"`
	RandomPatrolChance  float64    `yaml:"randomPatrolChance"`
	PatrolWaitTime      float64    `yaml:"patrolWaitTime"`
	IdleTime            FloatRange `yaml:"idleTime"`
	RandomSoundInterval float64    `yaml:"randomSoundInterval"`

	// 攻击
	AttackCooldown    float64           `yaml:"attackCooldown"`
	AttackDuration    float64           `yaml:"attackDuration"`   // 攻击动画时长
	AttackImpactTime  float64           `yaml:"attackImpactTime"` // 近战命中时刻（动画事件缺失时的兜底）
	AttackDamage      float64           `yaml:"attackDamage"`
	Accuracy          float64           `yaml:"accuracy"`
	MaxSpreadAngle    float64           `yaml:"maxSpreadAngle"` // 角度
	ProjectileSpeed   float64           `yaml:"projectileSpeed"`
	MuzzleOffset      mgl64.Vec3        `yaml:"muzzleOffset"`
	FlashDuration     float64           `yaml:"flashDuration"`
	HasMuzzleFlash    bool              `yaml:"hasMuzzleFlash"`
	AnimationVariants AnimationVariants `yaml:"animationVariants"`

	// 受击与死亡
	HurtCooldown          float64  `yaml:"hurtCooldown"`
	HurtSoundChance       float64  `yaml:"hurtSoundChance"`
	ImpactLayer           string   `yaml:"impactLayer"`
	ImpactAnimations      []string `yaml:"impactAnimations"`
	ImpactBlendTime       float64  `yaml:"impactBlendTime"`
	CollisionDisableDelay float64  `yaml:"collisionDisableDelay"`
	DeathCleanupDelay     float64  `yaml:"deathCleanupDelay"`
	UseRagdoll            bool     `yaml:"useRagdoll"`

	// 外形
	BoundsCenter      mgl64.Vec3   `yaml:"boundsCenter"`
	BoundsHalfExtents mgl64.Vec3   `yaml:"boundsHalfExtents"`
	Skeleton          []BoneConfig `yaml:"skeleton"`

	Sounds SoundSet `yaml:"sounds"`
}

// CombatantsConfig combatants.yaml 文件结构
type CombatantsConfig struct {
	Archetypes map[string]CombatantArchetype `yaml:"archetypes"`
}

// LoadCombatants 从嵌入数据加载角色原型配置
func LoadCombatants(path string) (*CombatantsConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read combatants file %s: %w", path, err)
	}

	cfg, err := ParseCombatants(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseCombatants 解析并验证角色原型 YAML
func ParseCombatants(data []byte) (*CombatantsConfig, error) {
	var cfg CombatantsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse combatants YAML: %w", err)
	}

	if err := validateCombatants(&cfg); err != nil {
		return nil, fmt.Errorf("invalid combatants config: %w", err)
	}
	return &cfg, nil
}

func validateCombatants(cfg *CombatantsConfig) error {
	if len(cfg.Archetypes) == 0 {
		return fmt.Errorf("at least one archetype is required")
	}

	for name, a := range cfg.Archetypes {
		if !a.Kind.IsValid() {
			return fmt.Errorf("archetype %s: unknown kind %q", name, a.Kind)
		}
		if a.MaxHealth <= 0 {
			return fmt.Errorf("archetype %s: maxHealth must be positive, got %v", name, a.MaxHealth)
		}
		if a.DetectRange <= 0 || a.AttackRange <= 0 {
			return fmt.Errorf("archetype %s: detectRange and attackRange must be positive", name)
		}
		if a.AttackRange > a.DetectRange {
			return fmt.Errorf("archetype %s: attackRange %v exceeds detectRange %v", name, a.AttackRange, a.DetectRange)
		}
		if a.DetectionDelay <= 0 {
			return fmt.Errorf("archetype %s: detectionDelay must be positive, got %v", name, a.DetectionDelay)
		}
		if a.AttackCooldown < 0 {
			return fmt.Errorf("archetype %s: attackCooldown cannot be negative, got %v", name, a.AttackCooldown)
		}
		if a.MaxSampleAttempts < 1 {
			return fmt.Errorf("archetype %s: maxSampleAttempts must be at least 1, got %d", name, a.MaxSampleAttempts)
		}
		if a.Accuracy < 0 || a.Accuracy > 1 {
			return fmt.Errorf("archetype %s: accuracy must be within [0, 1], got %v", name, a.Accuracy)
		}
		if a.IdleTime.Max < a.IdleTime.Min {
			return fmt.Errorf("archetype %s: idleTime max %v below min %v", name, a.IdleTime.Max, a.IdleTime.Min)
		}
		if a.Kind == types.CombatantSoldier && a.ProjectileSpeed <= 0 {
			return fmt.Errorf("archetype %s: soldier requires a positive projectileSpeed", name)
		}

		for i, b := range a.Skeleton {
			if b.Name == "" {
				return fmt.Errorf("archetype %s: bone %d has no name", name, i)
			}
			if !b.NoBody && b.Mass <= 0 {
				return fmt.Errorf("archetype %s: bone %s mass must be positive", name, b.Name)
			}
		}
	}
	return nil
}

// Archetype 获取指定名称的原型
func (c *CombatantsConfig) Archetype(name string) (*CombatantArchetype, error) {
	a, ok := c.Archetypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownArchetype, name)
	}
	return &a, nil
}

// Names 返回按字母排序的原型名列表
func (c *CombatantsConfig) Names() []string {
	names := make([]string, 0, len(c.Archetypes))
	for name := range c.Archetypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
