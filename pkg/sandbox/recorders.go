package sandbox

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ports"
)

// PlayedState 一次 PlayState 调用
type PlayedState struct {
	Name  string
	Layer int
	Blend float64
}

// Animator 记录调用的动画控制器，实现 ports.AnimationPort
type Animator struct {
	Floats   map[string]float64
	Bools    map[string]bool
	Triggers []string
	States   []PlayedState

	params  map[string]bool
	layers  map[string]int
	enabled bool
}

// NewAnimator 创建动画控制器
// params 为控制器声明的参数名，layers 为图层名（按顺序分配下标）
func NewAnimator(params []string, layers []string) *Animator {
	a := &Animator{
		Floats:  make(map[string]float64),
		Bools:   make(map[string]bool),
		params:  make(map[string]bool),
		layers:  make(map[string]int),
		enabled: true,
	}
	for _, p := range params {
		a.params[p] = true
	}
	for i, l := range layers {
		a.layers[l] = i
	}
	return a
}

func (a *Animator) PlayState(name string, layer int, blend float64) {
	a.States = append(a.States, PlayedState{Name: name, Layer: layer, Blend: blend})
}

func (a *Animator) SetFloat(param string, value float64) { a.Floats[param] = value }

func (a *Animator) SetBool(param string, value bool) { a.Bools[param] = value }

func (a *Animator) SetTrigger(param string) { a.Triggers = append(a.Triggers, param) }

func (a *Animator) HasParameter(name string) bool { return a.params[name] }

// LayerIndex 返回图层下标，不存在时为 -1
func (a *Animator) LayerIndex(name string) int {
	if i, ok := a.layers[name]; ok {
		return i
	}
	return -1
}

func (a *Animator) SetEnabled(enabled bool) { a.enabled = enabled }

func (a *Animator) Enabled() bool { return a.enabled }

// TriggerCount 统计某个触发器被设置的次数
func (a *Animator) TriggerCount(name string) int {
	n := 0
	for _, t := range a.Triggers {
		if t == name {
			n++
		}
	}
	return n
}

// PlayedClip 一次音效播放
type PlayedClip struct {
	Clip     string
	Volume   float64
	Position mgl64.Vec3
	AtPoint  bool
}

// AudioSource 记录播放的音频源，实现 ports.AudioPort
type AudioSource struct {
	Played []PlayedClip
	Stops  int
}

// NewAudioSource 创建音频源
func NewAudioSource() *AudioSource {
	return &AudioSource{}
}

func (a *AudioSource) PlayOneShot(clip string, volume float64) {
	a.Played = append(a.Played, PlayedClip{Clip: clip, Volume: volume})
}

func (a *AudioSource) PlayAtPoint(clip string, pos mgl64.Vec3, volume float64) {
	a.Played = append(a.Played, PlayedClip{Clip: clip, Volume: volume, Position: pos, AtPoint: true})
}

func (a *AudioSource) Stop() { a.Stops++ }

// Count 统计某个片段播放的次数
func (a *AudioSource) Count(clip string) int {
	n := 0
	for _, p := range a.Played {
		if p.Clip == clip {
			n++
		}
	}
	return n
}

// SpawnedEffect 一次特效生成
type SpawnedEffect struct {
	Kind   ports.EffectKind
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// EffectLog 记录生成的特效，实现 ports.EffectsPort
type EffectLog struct {
	Spawned []SpawnedEffect
}

// NewEffectLog 创建特效记录
func NewEffectLog() *EffectLog {
	return &EffectLog{}
}

func (e *EffectLog) SpawnEffect(kind ports.EffectKind, point, normal mgl64.Vec3) {
	e.Spawned = append(e.Spawned, SpawnedEffect{Kind: kind, Point: point, Normal: normal})
}

// Count 统计某种特效的数量
func (e *EffectLog) Count(kind ports.EffectKind) int {
	n := 0
	for _, s := range e.Spawned {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// 编译期接口检查
var (
	_ ports.PhysicsPort    = (*World)(nil)
	_ ports.NavigationPort = (*Agent)(nil)
	_ ports.AnimationPort  = (*Animator)(nil)
	_ ports.AudioPort      = (*AudioSource)(nil)
	_ ports.EffectsPort    = (*EffectLog)(nil)
)
