package config

import (
	"fmt"
	"math"
	"math/rand"

	"gopkg.in/yaml.v3"

	"github.com/gonewx/horde/pkg/embedded"
)

// SpawnMode 刷怪模式
type SpawnMode string

const (
	// SpawnModeWaves 波次模式
	SpawnModeWaves SpawnMode = "waves"
	// SpawnModeEndless 无尽模式
	SpawnModeEndless SpawnMode = "endless"
)

// WeightedArchetype 带权重的原型
type WeightedArchetype struct {
	Name   string `yaml:"name"`
	Weight int    `yaml:"weight"`
}

// SpawnRulesConfig 刷怪规则配置
//
// 配置文件位置: data/spawn_rules.yaml
type SpawnRulesConfig struct {
	Mode         SpawnMode           `yaml:"mode"`
	Interval     float64             `yaml:"interval"`     // 两次刷怪之间的间隔（秒）
	EnemyCap     int                 `yaml:"enemyCap"`     // 同时存活上限（无尽模式）/ 波次基数
	WaveScale    float64             `yaml:"waveScale"`    // 波次目标 = max(1, round(enemyCap * waveScale * wave))
	ScorePerKill int                 `yaml:"scorePerKill"` // 每次击杀得分
	Archetypes   []WeightedArchetype `yaml:"archetypes"`
}

// LoadSpawnRules 从嵌入数据加载刷怪规则配置
func LoadSpawnRules(path string) (*SpawnRulesConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spawn rules file: %w", err)
	}

	cfg, err := ParseSpawnRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseSpawnRules 解析并验证刷怪规则
func ParseSpawnRules(data []byte) (*SpawnRulesConfig, error) {
	cfg := SpawnRulesConfig{
		Mode:         SpawnModeWaves,
		WaveScale:    0.5,
		ScorePerKill: 100,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse spawn rules YAML: %w", err)
	}

	if err := validateSpawnRules(&cfg); err != nil {
		return nil, fmt.Errorf("invalid spawn rules config: %w", err)
	}
	return &cfg, nil
}

// validateSpawnRules 验证配置的有效性
func validateSpawnRules(cfg *SpawnRulesConfig) error {
	if cfg.Mode != SpawnModeWaves && cfg.Mode != SpawnModeEndless {
		return fmt.Errorf("mode must be %q or %q, got %q", SpawnModeWaves, SpawnModeEndless, cfg.Mode)
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.EnemyCap < 1 {
		return fmt.Errorf("enemyCap must be at least 1, got %d", cfg.EnemyCap)
	}
	if cfg.WaveScale <= 0 {
		return fmt.Errorf("waveScale must be positive, got %v", cfg.WaveScale)
	}
	if cfg.ScorePerKill < 0 {
		return fmt.Errorf("scorePerKill cannot be negative, got %d", cfg.ScorePerKill)
	}
	if len(cfg.Archetypes) == 0 {
		return fmt.Errorf("archetypes cannot be empty")
	}

	total := 0
	for _, a := range cfg.Archetypes {
		if a.Name == "" {
			return fmt.Errorf("archetype name cannot be empty")
		}
		if a.Weight < 0 {
			return fmt.Errorf("archetype %s: weight cannot be negative, got %d", a.Name, a.Weight)
		}
		total += a.Weight
	}
	if total == 0 {
		return fmt.Errorf("archetype weights sum to zero")
	}
	return nil
}

// WaveTarget 返回指定波次的目标刷怪数量（至少为 1，随波次单调递增）
func (c *SpawnRulesConfig) WaveTarget(wave int) int {
	n := int(math.Round(float64(c.EnemyCap) * c.WaveScale * float64(wave)))
	if n < 1 {
		return 1
	}
	return n
}

// ChooseArchetype 按权重随机选择一个原型
func (c *SpawnRulesConfig) ChooseArchetype(rng *rand.Rand) string {
	total := 0
	for _, a := range c.Archetypes {
		total += a.Weight
	}
	if total <= 0 {
		return c.Archetypes[0].Name
	}

	roll := rng.Intn(total)
	for _, a := range c.Archetypes {
		if roll < a.Weight {
			return a.Name
		}
		roll -= a.Weight
	}
	return c.Archetypes[len(c.Archetypes)-1].Name
}
