package config

import (
	"strings"
	"testing"
)

func TestParseRagdollKeepsDefaults(t *testing.T) {
	cfg, err := ParseRagdoll([]byte(`
ragdoll:
  maxBounces: 4
  enableFadeOut: false
`))
	if err != nil {
		t.Fatalf("ParseRagdoll failed: %v", err)
	}

	if cfg.MaxBounces != 4 {
		t.Errorf("Expected maxBounces 4, got %d", cfg.MaxBounces)
	}
	if cfg.EnableFadeOut {
		t.Error("Expected fade out disabled")
	}
	if cfg.DeathForceMultiplier != 8 {
		t.Errorf("Expected default deathForceMultiplier 8, got %v", cfg.DeathForceMultiplier)
	}
	if cfg.SlowMotionDragMultiplier != 15 {
		t.Errorf("Expected default slowMotionDragMultiplier 15, got %v", cfg.SlowMotionDragMultiplier)
	}
	if len(cfg.MainBodyNames) != 6 || cfg.MainBodyNames[0] != "hips" {
		t.Errorf("Expected default main body names starting with hips, got %v", cfg.MainBodyNames)
	}
}

func TestParseRagdollValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"force range inverted", "ragdoll: {minimumDeathForce: 20, maximumDeathForce: 10}", "below minimumDeathForce"},
		{"negative bounces", "ragdoll: {maxBounces: -1}", "maxBounces"},
		{"randomization too high", "ragdoll: {forceRandomization: 1.2}", "forceRandomization"},
		{"slow motion shorter than freeze", "ragdoll: {slowMotionDuration: 0.5}", "slowMotionDuration"},
		{"fade longer than cleanup", "ragdoll: {cleanupDelay: 2, fadeOutDuration: 3}", "fadeOutDuration"},
		{"drag multiplier below one", "ragdoll: {slowMotionDragMultiplier: 0.5}", "slowMotionDragMultiplier"},
		{"unknown easing", "ragdoll: {slowMotionEasing: bounce}", "slowMotionEasing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRagdoll([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseProjectiles(t *testing.T) {
	cfg, err := ParseProjectiles([]byte("projectile: {playerDamage: 30}"))
	if err != nil {
		t.Fatalf("ParseProjectiles failed: %v", err)
	}
	if cfg.PlayerDamage != 30 {
		t.Errorf("Expected playerDamage 30, got %v", cfg.PlayerDamage)
	}
	if cfg.Lifetime != 10 || cfg.MinSpeedForRaycast != 10 || cfg.ImpactForce != 100 {
		t.Errorf("Expected defaults lifetime=10 minSpeed=10 impact=100, got %+v", cfg)
	}

	if _, err := ParseProjectiles([]byte("projectile: {lifetime: 0}")); err == nil {
		t.Error("Expected error for zero lifetime")
	}
}

func TestParseArena(t *testing.T) {
	layout, err := ParseArena([]byte(`
navMin: [-10, 0, -10]
navMax: [10, 0, 10]
ground: {center: [0, -0.5, 0], halfExtents: [20, 0.5, 20], tag: Ground}
walls:
  - {center: [0, 1, 5], halfExtents: [2, 1, 0.2], tag: Concrete}
spawnPoints: [[-8, 0, -8], [8, 0, 8]]
player: {start: [0, 0, 0], maxHealth: 100, halfExtents: [0.4, 0.9, 0.4]}
damageZones:
  - {center: [3, 0.5, 3], halfExtents: [1, 0.5, 1], damage: 10, interval: 1}
pickups:
  - {position: [-3, 0.5, 3], radius: 0.5, amount: 25}
`))
	if err != nil {
		t.Fatalf("ParseArena failed: %v", err)
	}

	if len(layout.SpawnPoints) != 2 {
		t.Errorf("Expected 2 spawn points, got %d", len(layout.SpawnPoints))
	}
	if layout.Walls[0].Tag != "Concrete" {
		t.Errorf("Expected wall tag Concrete, got %s", layout.Walls[0].Tag)
	}
	if layout.DamageZones[0].Center.X() != 3 || layout.DamageZones[0].Damage != 10 {
		t.Errorf("Inline box fields not decoded: %+v", layout.DamageZones[0])
	}
	if layout.WinTrigger != nil {
		t.Error("Expected no win trigger")
	}

	if _, err := ParseArena([]byte("navMin: [0,0,0]\nnavMax: [1,0,1]\nplayer: {maxHealth: 1}")); err == nil {
		t.Error("Expected error for arena without spawn points")
	}
}
