package systems

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
)

// PickupSystem 回血道具与胜利触发区域
type PickupSystem struct {
	entityManager *ecs.EntityManager
	health        *HealthSystem
	player        ecs.EntityID
	onWin         func()
	logger        zerolog.Logger
}

// NewPickupSystem 创建道具系统
func NewPickupSystem(em *ecs.EntityManager, health *HealthSystem) *PickupSystem {
	return &PickupSystem{
		entityManager: em,
		health:        health,
		logger:        logging.For("PickupSystem"),
	}
}

// SetPlayer 设置玩家实体
func (s *PickupSystem) SetPlayer(id ecs.EntityID) {
	s.player = id
}

// SetOnWin 设置到达胜利区域的回调
func (s *PickupSystem) SetOnWin(fn func()) {
	s.onWin = fn
}

// Update 检测玩家与道具、胜利区域的接触
func (s *PickupSystem) Update(deltaTime float64) {
	pMin, pMax, ok := playerBox(s.entityManager, s.player)
	if !ok || s.health.IsDead(s.player) {
		return
	}

	for _, id := range ecs.GetEntitiesWith2[*components.HealthPickupComponent, *components.TransformComponent](s.entityManager) {
		pickup, _ := ecs.GetComponent[*components.HealthPickupComponent](s.entityManager, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		if pickup.Consumed {
			continue
		}
		r := mgl64.Vec3{pickup.Radius, pickup.Radius, pickup.Radius}
		if !components.Overlaps(pMin, pMax, tr.Position.Sub(r), tr.Position.Add(r)) {
			continue
		}
		// 满血时不拾取
		if s.health.IsAtFullHealth(s.player) {
			continue
		}
		s.health.Heal(s.player, pickup.Amount)
		pickup.Consumed = true
		if p, ok := ecs.GetComponent[*components.PlayerComponent](s.entityManager, s.player); ok && p.Audio != nil && pickup.Sound != "" {
			p.Audio.PlayOneShot(pickup.Sound, 1)
		}
		RequestDestroy(s.entityManager, id, "pickup consumed")
		s.logger.Info().Float64("amount", pickup.Amount).Msg("[PickupSystem] health pickup consumed")
	}

	for _, id := range ecs.GetEntitiesWith3[*components.WinTriggerComponent, *components.TransformComponent, *components.BoundsComponent](s.entityManager) {
		trigger, _ := ecs.GetComponent[*components.WinTriggerComponent](s.entityManager, id)
		if trigger.Triggered {
			continue
		}
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		bounds, _ := ecs.GetComponent[*components.BoundsComponent](s.entityManager, id)
		zMin, zMax := bounds.MinMax(tr.Position)
		if !components.Overlaps(pMin, pMax, zMin, zMax) {
			continue
		}
		trigger.Triggered = true
		s.logger.Info().Msg("[PickupSystem] player reached the exit")
		if s.onWin != nil {
			s.onWin()
		}
	}
}
