package systems

import (
	"github.com/rs/zerolog"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/logging"
	"github.com/gonewx/horde/pkg/tasks"
)

// EntityReleaser 持有实体外部资源（刚体、碰撞体、导航代理）的服务
type EntityReleaser interface {
	ReleaseEntity(id ecs.EntityID)
}

// LifetimeSystem 管理实体的生命周期
//
// 负责三件事：过期实体（子弹）的销毁、处理销毁请求（连同骨骼子实体一起销毁）、
// 在帧末释放待销毁实体的外部资源与未执行任务，然后真正移除实体。
type LifetimeSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *tasks.Scheduler
	releasers     []EntityReleaser
	logger        zerolog.Logger
}

// NewLifetimeSystem 创建一个新的生命周期系统
func NewLifetimeSystem(em *ecs.EntityManager, scheduler *tasks.Scheduler, releasers ...EntityReleaser) *LifetimeSystem {
	return &LifetimeSystem{
		entityManager: em,
		scheduler:     scheduler,
		releasers:     releasers,
		logger:        logging.For("LifetimeSystem"),
	}
}

// RequestDestroy 请求在本帧末尾销毁实体（重复请求只保留第一次的原因）
func RequestDestroy(em *ecs.EntityManager, id ecs.EntityID, reason string) {
	if !em.Exists(id) || em.IsMarkedForDestruction(id) {
		return
	}
	if ecs.HasComponent[*components.DestroyRequestComponent](em, id) {
		return
	}
	ecs.AddComponent(em, id, &components.DestroyRequestComponent{Reason: reason})
}

// Update 更新所有拥有生命周期组件的实体，并执行本帧的销毁
func (s *LifetimeSystem) Update(deltaTime float64) {
	for _, id := range ecs.GetEntitiesWith1[*components.LifetimeComponent](s.entityManager) {
		lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](s.entityManager, id)
		if !ok {
			continue
		}

		lifetime.CurrentLifetime += deltaTime
		if lifetime.CurrentLifetime >= lifetime.MaxLifetime {
			lifetime.IsExpired = true
		}
		if lifetime.IsExpired {
			RequestDestroy(s.entityManager, id, "expired")
		}
	}

	for _, id := range ecs.GetEntitiesWith1[*components.DestroyRequestComponent](s.entityManager) {
		req, _ := ecs.GetComponent[*components.DestroyRequestComponent](s.entityManager, id)
		s.logger.Debug().Uint64("entity", uint64(id)).Str("reason", req.Reason).
			Msg("[LifetimeSystem] destroying entity")
		s.destroyTree(id)
	}

	s.Flush()
}

// Flush 释放待销毁实体的外部资源和未执行任务，然后移除实体
func (s *LifetimeSystem) Flush() {
	pending := s.entityManager.PendingDestruction()
	for _, id := range pending {
		for _, r := range s.releasers {
			r.ReleaseEntity(id)
		}
		if s.scheduler != nil {
			s.scheduler.CancelOwner(id)
		}
	}
	s.entityManager.RemoveMarkedEntities()
}

// destroyTree 销毁实体及其全部子实体
func (s *LifetimeSystem) destroyTree(root ecs.EntityID) {
	for _, id := range ecs.GetEntitiesWith1[*components.ParentComponent](s.entityManager) {
		if id != root && isSelfOrChild(s.entityManager, id, root) {
			s.entityManager.DestroyEntity(id)
		}
	}
	s.entityManager.DestroyEntity(root)
}
