package systems

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/tasks"
)

// DamageZoneSystem 伤害区域
// 玩家进入区域立即受到一次伤害，之后每 interval 秒一次，离开时停止
type DamageZoneSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *tasks.Scheduler
	health        *HealthSystem
	player        ecs.EntityID
	logger        zerolog.Logger
}

// NewDamageZoneSystem 创建伤害区域系统
func NewDamageZoneSystem(em *ecs.EntityManager, scheduler *tasks.Scheduler, health *HealthSystem) *DamageZoneSystem {
	return &DamageZoneSystem{
		entityManager: em,
		scheduler:     scheduler,
		health:        health,
		logger:        logging.For("DamageZoneSystem"),
	}
}

// SetPlayer 设置玩家实体
func (s *DamageZoneSystem) SetPlayer(id ecs.EntityID) {
	s.player = id
}

// Update 检测玩家进出区域
func (s *DamageZoneSystem) Update(deltaTime float64) {
	pMin, pMax, ok := playerBox(s.entityManager, s.player)
	zones := ecs.GetEntitiesWith3[*components.DamageZoneComponent, *components.TransformComponent, *components.BoundsComponent](s.entityManager)

	for _, id := range zones {
		zone, _ := ecs.GetComponent[*components.DamageZoneComponent](s.entityManager, id)
		tr, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		bounds, _ := ecs.GetComponent[*components.BoundsComponent](s.entityManager, id)

		zMin, zMax := bounds.MinMax(tr.Position)
		inside := ok && !s.health.IsDead(s.player) && components.Overlaps(pMin, pMax, zMin, zMax)

		switch {
		case inside && !zone.Inside:
			zone.Inside = true
			s.logger.Debug().Uint64("zone", uint64(id)).Msg("[DamageZoneSystem] player entered zone")
			zoneID := id
			s.damage(zoneID)
			s.scheduler.Every(tasks.Key{Owner: id, Group: tasks.GroupZone}, zone.Interval, func() {
				s.damage(zoneID)
			})
		case !inside && zone.Inside:
			zone.Inside = false
			s.scheduler.CancelGroup(id, tasks.GroupZone)
			s.logger.Debug().Uint64("zone", uint64(id)).Msg("[DamageZoneSystem] player left zone")
		}
	}
}

func (s *DamageZoneSystem) damage(zoneID ecs.EntityID) {
	zone, ok := ecs.GetComponent[*components.DamageZoneComponent](s.entityManager, zoneID)
	if !ok || !zone.Inside {
		return
	}
	if !s.health.ApplyDamage(s.player, zone.Damage) {
		return
	}
	if p, ok := ecs.GetComponent[*components.PlayerComponent](s.entityManager, s.player); ok && p.Audio != nil && zone.Sound != "" {
		p.Audio.PlayOneShot(zone.Sound, 1)
	}
}

// playerBox 返回玩家的世界包围盒
func playerBox(em *ecs.EntityManager, player ecs.EntityID) (mgl64.Vec3, mgl64.Vec3, bool) {
	if player == ecs.InvalidEntity {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	tr, ok := ecs.GetComponent[*components.TransformComponent](em, player)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	bounds, ok := ecs.GetComponent[*components.BoundsComponent](em, player)
	if !ok {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	mn, mx := bounds.MinMax(tr.Position)
	return mn, mx, true
}
