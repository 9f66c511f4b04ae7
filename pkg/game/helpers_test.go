package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/embedded"
)

const testFrame = 1.0 / 50.0

// loadTestAssets 从仓库 data/ 目录加载配置
func loadTestAssets(t *testing.T) *Assets {
	t.Helper()
	embedded.Init(os.DirFS(filepath.Join("..", "..")))
	assets, err := LoadAssets("data")
	if err != nil {
		t.Fatalf("LoadAssets() error = %v", err)
	}
	return assets
}

// newTestArena 创建场地并记录刷出的角色
func newTestArena(t *testing.T, opts ArenaOptions) (*Arena, *[]ecs.EntityID) {
	t.Helper()
	a, err := NewArena(loadTestAssets(t), opts)
	if err != nil {
		t.Fatalf("NewArena() error = %v", err)
	}
	spawned := &[]ecs.EntityID{}
	a.Spawner().OnSpawned(func(id ecs.EntityID, _ string) {
		*spawned = append(*spawned, id)
	})
	return a, spawned
}

// runArena 以固定帧长推进
func runArena(a *Arena, seconds float64) {
	steps := int(seconds/testFrame + 0.5)
	for i := 0; i < steps; i++ {
		a.Tick(testFrame)
	}
}
