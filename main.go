package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/gonewx/horde/pkg/config"
	"github.com/gonewx/horde/pkg/embedded"
	"github.com/gonewx/horde/pkg/game"
	"github.com/gonewx/horde/pkg/logging"
)

const (
	screenWidth  = 640
	screenHeight = 360

	// playerSpeed 键盘移动速度（米/秒）
	playerSpeed = 5.0
)

// Game 在 ebiten 循环中推进 Arena，并以调试文本显示状态
type Game struct {
	arena    *game.Arena
	progress *game.ProgressStore
	dt       float64
}

// Update 每个 tick 调用一次：处理移动输入并推进模拟
func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	var move mgl64.Vec3
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		move[2]++
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		move[2]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		move[0]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		move[0]++
	}
	if move.Len() > 0 && !g.arena.State().IsGameOver {
		g.arena.MovePlayer(g.arena.PlayerPosition().Add(move.Normalize().Mul(playerSpeed * g.dt)))
	}

	g.arena.Tick(g.dt)
	return nil
}

// Draw 绘制状态文本（不渲染场景）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 24, B: 28, A: 255})

	s := g.arena.State()
	p := g.progress.Progress()
	pos := g.arena.PlayerPosition()
	status := fmt.Sprintf(
		"HORDE  [WASD] move  [Esc] quit\n\n"+
			"mode: %s   wave: %d   alive: %d\n"+
			"score: %d   kills: %d   time: %.1fs\n"+
			"health: %.0f%%   position: (%.1f, %.1f)\n\n"+
			"best wave: %d   high score: %d",
		g.arena.Spawner().Mode(), s.Round, g.arena.Spawner().LiveCount(),
		s.Score, s.Kills, s.Elapsed(g.arena.Now()),
		g.arena.PlayerHealth()*100, pos.X(), pos.Z(),
		p.BestWave, p.HighScore,
	)
	switch {
	case s.IsWin:
		status += "\n\nYOU ESCAPED"
	case s.IsGameOver:
		status += "\n\nGAME OVER"
	}
	ebitenutil.DebugPrint(screen, status)
}

// Layout 返回逻辑屏幕尺寸
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	cfg, err := config.LoadAppConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, os.Stderr)
	log := logging.For("Main")

	embedded.Init(dataFS)

	assets, err := game.LoadAssets(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] failed to load data")
	}
	arena, err := game.NewArena(assets, game.ArenaOptions{Seed: cfg.Seed, SpawnMode: cfg.Spawn.Mode})
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] failed to build arena")
	}

	metrics, err := game.NewMetrics(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] failed to create metrics")
	}
	arena.AttachMetrics(metrics)

	progress, err := game.OpenProgressStore(cfg.SaveDir)
	if err != nil {
		log.Warn().Err(err).Msg("[Main] progress will not be saved")
	}
	arena.AttachProgress(progress)

	if cfg.Recorder.Enabled {
		recorder, err := game.OpenMatchRecorder(cfg.Recorder.Path)
		if err != nil {
			log.Warn().Err(err).Msg("[Main] match history disabled")
		} else {
			defer recorder.Close()
			arena.AttachRecorder(recorder)
		}
	}

	arena.Start()

	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("horde")

	g := &Game{arena: arena, progress: progress, dt: 1.0 / float64(cfg.TPS)}
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Error().Err(err).Msg("[Main] game loop stopped")
	}
}
