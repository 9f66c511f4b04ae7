package game

// GameState 一局游戏的全局状态
// 得分、波次、击杀数与开始/结束时间（模拟时间，秒），由 Arena 持有，不是单例
type GameState struct {
	Score int // 当前得分
	Round int // 当前波次
	Kills int // 击杀数

	StartTime float64 // 开始时间
	EndTime   float64 // 结束时间，未结束时为 0

	IsGameOver bool // 是否已结束
	IsWin      bool // 是否到达出口获胜
}

// NewGameState 创建新的游戏状态
func NewGameState() *GameState {
	return &GameState{}
}

// AddScore 增加得分，实现 systems.ScoreKeeper
// 游戏结束后不再计分
func (gs *GameState) AddScore(points int) {
	if gs.IsGameOver || points <= 0 {
		return
	}
	gs.Score += points
}

// AddKill 增加击杀数
func (gs *GameState) AddKill() {
	if gs.IsGameOver {
		return
	}
	gs.Kills++
}

// SetRound 设置当前波次
func (gs *GameState) SetRound(round int) {
	gs.Round = round
}

// Begin 开始新的一局，清空计分
func (gs *GameState) Begin(now float64) {
	*gs = GameState{StartTime: now}
}

// End 结束本局
//
// 参数:
//   - now: 当前模拟时间
//   - win: 是否获胜
//
// 返回:
//   - bool: 本次调用是否真正结束了游戏（重复调用返回 false）
func (gs *GameState) End(now float64, win bool) bool {
	if gs.IsGameOver {
		return false
	}
	gs.IsGameOver = true
	gs.IsWin = win
	gs.EndTime = now
	return true
}

// Elapsed 本局已进行的时间
func (gs *GameState) Elapsed(now float64) float64 {
	if gs.IsGameOver {
		return gs.EndTime - gs.StartTime
	}
	return now - gs.StartTime
}
