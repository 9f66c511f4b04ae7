package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/components"
	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/types"
)

// newObserver 只带变换组件的观察者
func newObserver(em *ecs.EntityManager, pos mgl64.Vec3) ecs.EntityID {
	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransform(pos))
	return id
}

// TestPerception_CornerOcclusion 测试角点遮挡判定
func TestPerception_CornerOcclusion(t *testing.T) {
	tests := []struct {
		name        string
		target      mgl64.Vec3
		detectRange float64
		wall        bool
		cover       [][2]mgl64.Vec3 // 额外遮挡物：中心、半尺寸
		wantHidden  int
		wantVisible bool
	}{
		{
			name:        "无遮挡，全部角点可见",
			target:      mgl64.Vec3{0, 0, 10},
			detectRange: 18,
			wantHidden:  0,
			wantVisible: true,
		},
		{
			name:        "墙体挡住全部角点",
			target:      mgl64.Vec3{0, 0, 10},
			detectRange: 18,
			wall:        true,
			wantHidden:  8,
			wantVisible: false,
		},
		{
			// 矮墙挡住下方和后方角点，左侧立柱挡住左上前角点，只露出右上前角点
			name:        "七个角点被遮挡仍然可见",
			target:      mgl64.Vec3{0, 0, 10},
			detectRange: 18,
			cover: [][2]mgl64.Vec3{
				{{0, 0.85, 9.5}, {1, 0.87, 0.1}},
				{{-0.5, 1.25, 9.5}, {0.5, 1.25, 0.1}},
			},
			wantHidden:  7,
			wantVisible: true,
		},
		{
			name:        "只有一个角点在探测距离内仍然可见",
			target:      mgl64.Vec3{1, 0, 10},
			detectRange: 9.77,
			wantHidden:  7,
			wantVisible: true,
		},
		{
			name:        "全部角点超出探测距离",
			target:      mgl64.Vec3{0, 0, 30},
			detectRange: 18,
			wantHidden:  8,
			wantVisible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			observer := newObserver(w.em, mgl64.Vec3{0, 0, 0})
			target := w.addPlayer(t, tt.target)
			if tt.wall {
				w.addWall(mgl64.Vec3{0, 1, 5}, mgl64.Vec3{3, 3, 0.2}, types.TagConcrete)
			}
			for _, box := range tt.cover {
				w.addWall(box[0], box[1], types.TagConcrete)
			}

			hidden, total := w.perception.HiddenCorners(observer, target, 0.5, tt.detectRange)
			if total != 8 {
				t.Fatalf("total corners = %d, want 8", total)
			}
			if hidden != tt.wantHidden {
				t.Errorf("hidden = %d, want %d", hidden, tt.wantHidden)
			}
			if got := w.perception.CanSee(observer, target, 0.5, tt.detectRange); got != tt.wantVisible {
				t.Errorf("CanSee = %v, want %v", got, tt.wantVisible)
			}
		})
	}
}

// TestPerception_IgnoresOwnColliders 观察者自身的碰撞体（根节点和骨骼）不遮挡视线
func TestPerception_IgnoresOwnColliders(t *testing.T) {
	w := newTestWorld(t)
	w.addPlayer(t, mgl64.Vec3{0, 0, 10})
	soldier := w.addCombatant(t, "soldier", soldierArchetype(), mgl64.Vec3{0, 0, 0})

	hidden, _ := w.perception.HiddenCorners(soldier, w.player, 0.5, 18)
	if hidden != 0 {
		t.Errorf("hidden = %d, want 0 (own colliders must not occlude)", hidden)
	}
}

// TestPerception_DestroyedTarget 已标记销毁的目标不可见
func TestPerception_DestroyedTarget(t *testing.T) {
	w := newTestWorld(t)
	observer := newObserver(w.em, mgl64.Vec3{0, 0, 0})
	target := w.addPlayer(t, mgl64.Vec3{0, 0, 5})

	w.em.DestroyEntity(target)
	if w.perception.CanSee(observer, target, 0.5, 18) {
		t.Error("marked target should not be visible")
	}
}
