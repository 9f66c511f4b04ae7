package game

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gonewx/horde/pkg/game"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics 模拟计数器
// 使用全局 MeterProvider，宿主未安装时为 no-op
type Metrics struct {
	spawned metric.Int64Counter
	died    metric.Int64Counter
	hits    metric.Int64Counter
	waves   metric.Int64Counter
}

// NewMetrics 创建计数器；m 为 nil 时使用全局 meter
func NewMetrics(m metric.Meter) (*Metrics, error) {
	if m == nil {
		m = meter()
	}

	var err error
	metrics := &Metrics{}
	metrics.spawned, err = m.Int64Counter(
		"horde.combatants.spawned",
		metric.WithDescription("Combatants created by the spawner"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create spawned counter: %w", err)
	}
	metrics.died, err = m.Int64Counter(
		"horde.combatants.died",
		metric.WithDescription("Registered combatants that died"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create died counter: %w", err)
	}
	metrics.hits, err = m.Int64Counter(
		"horde.projectiles.hits",
		metric.WithDescription("Resolved projectile hits by target category"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hits counter: %w", err)
	}
	metrics.waves, err = m.Int64Counter(
		"horde.waves.started",
		metric.WithDescription("Waves started"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create waves counter: %w", err)
	}
	return metrics, nil
}

// CombatantSpawned 记录一次刷怪
func (m *Metrics) CombatantSpawned(archetype string) {
	m.spawned.Add(context.Background(), 1, metric.WithAttributes(attribute.String("archetype", archetype)))
}

// CombatantDied 记录一次击杀
func (m *Metrics) CombatantDied() {
	m.died.Add(context.Background(), 1)
}

// ProjectileHit 记录一次命中
func (m *Metrics) ProjectileHit(category string) {
	m.hits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("category", category)))
}

// WaveStarted 记录波次开始
func (m *Metrics) WaveStarted(wave int) {
	m.waves.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("wave", wave)))
}
