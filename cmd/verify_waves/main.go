// verify_waves 无界面运行一局模拟，打印波次推进和最终统计
//
// 用法:
//
//	go run ./cmd/verify_waves -seconds 120 -kill-after 3
//	go run ./cmd/verify_waves -mode endless -god
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gonewx/horde/pkg/ecs"
	"github.com/gonewx/horde/pkg/embedded"
	"github.com/gonewx/horde/pkg/game"
	"github.com/gonewx/horde/pkg/logging"
)

var (
	root      = flag.String("root", ".", "仓库根目录（包含 data/）")
	mode      = flag.String("mode", "", "刷怪模式覆盖：waves 或 endless")
	seed      = flag.Int64("seed", 1, "随机种子")
	seconds   = flag.Float64("seconds", 90, "模拟时长（秒）")
	killAfter = flag.Float64("kill-after", 4, "角色刷出多少秒后被击杀，<=0 表示不击杀")
	god       = flag.Bool("god", false, "每帧回满玩家生命")
	verbose   = flag.Bool("verbose", false, "显示详细调试信息")
)

const frame = 1.0 / 60.0

func main() {
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logging.Setup(level, os.Stderr)

	embedded.Init(os.DirFS(*root))
	assets, err := game.LoadAssets("data")
	if err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}
	arena, err := game.NewArena(assets, game.ArenaOptions{Seed: *seed, SpawnMode: *mode})
	if err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}

	spawnedAt := make(map[ecs.EntityID]float64)
	archetypes := make(map[string]int)
	spawner := arena.Spawner()
	spawner.OnSpawned(func(id ecs.EntityID, archetype string) {
		spawnedAt[id] = arena.Now()
		archetypes[archetype]++
	})
	spawner.OnWaveStarted(func(wave, target int) {
		fmt.Printf("[%7.2fs] wave %d started, target %d\n", arena.Now(), wave, target)
	})
	spawner.OnWaveCompleted(func(wave int) {
		fmt.Printf("[%7.2fs] wave %d completed\n", arena.Now(), wave)
	})
	arena.OnGameOver(func(s *game.GameState) {
		fmt.Printf("[%7.2fs] game over (win=%v)\n", arena.Now(), s.IsWin)
	})

	arena.Start()
	fmt.Printf("mode=%s seed=%d seconds=%.0f\n", spawner.Mode(), *seed, *seconds)

	steps := int(*seconds / frame)
	for i := 0; i < steps && !arena.State().IsGameOver; i++ {
		if *god {
			arena.Health().Heal(arena.Player(), 1000)
		}
		if *killAfter > 0 {
			for id, at := range spawnedAt {
				if arena.Now()-at >= *killAfter {
					arena.Health().Die(id)
					delete(spawnedAt, id)
				}
			}
		}
		arena.Tick(frame)
	}

	s := arena.State()
	fmt.Println()
	fmt.Printf("wave:       %d\n", s.Round)
	fmt.Printf("score:      %d\n", s.Score)
	fmt.Printf("kills:      %d\n", s.Kills)
	fmt.Printf("alive:      %d\n", spawner.LiveCount())
	fmt.Printf("health:     %.0f%%\n", arena.PlayerHealth()*100)
	fmt.Printf("entities:   %d\n", arena.EntityManager().Count())
	for name, n := range archetypes {
		fmt.Printf("spawned %-8s %d\n", name+":", n)
	}
}
