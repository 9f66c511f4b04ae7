package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gonewx/horde/pkg/ports"
)

// 缺少外部服务时使用的空实现：角色原地不动、没有动画和声音，但状态机照常运行

type stationaryNav struct {
	position mgl64.Vec3
	speed    float64
	stopped  bool
}

func (n *stationaryNav) SetDestination(mgl64.Vec3) {}
func (n *stationaryNav) ResetPath() {}
func (n *stationaryNav) RemainingDistance() float64 { return 0 }
func (n *stationaryNav) StoppingDistance() float64 { return 0 }
func (n *stationaryNav) PathPending() bool { return false }
func (n *stationaryNav) IsStopped() bool { return n.stopped }
func (n *stationaryNav) SetStopped(stopped bool) { n.stopped = stopped }
func (n *stationaryNav) Speed() float64 { return n.speed }
func (n *stationaryNav) SetSpeed(speed float64) { n.speed = speed }
func (n *stationaryNav) SetEnabled(bool) {}
func (n *stationaryNav) Position() mgl64.Vec3 { return n.position }
func (n *stationaryNav) Velocity() mgl64.Vec3 { return mgl64.Vec3{} }
func (n *stationaryNav) SampleValidPoint(mgl64.Vec3, float64) (mgl64.Vec3, bool) {
	return mgl64.Vec3{}, false
}

type nopAnimator struct{ enabled bool }

func (a *nopAnimator) PlayState(string, int, float64) {}
func (a *nopAnimator) SetFloat(string, float64) {}
func (a *nopAnimator) SetBool(string, bool) {}
func (a *nopAnimator) SetTrigger(string) {}
func (a *nopAnimator) HasParameter(string) bool { return false }
func (a *nopAnimator) LayerIndex(string) int { return -1 }
func (a *nopAnimator) SetEnabled(enabled bool) { a.enabled = enabled }
func (a *nopAnimator) Enabled() bool { return a.enabled }

type nopAudio struct{}

func (nopAudio) PlayOneShot(string, float64) {}
func (nopAudio) PlayAtPoint(string, mgl64.Vec3, float64) {}
func (nopAudio) Stop() {}

type nopEffects struct{}

func (nopEffects) SpawnEffect(ports.EffectKind, mgl64.Vec3, mgl64.Vec3) {}

var (
	_ ports.NavigationPort = (*stationaryNav)(nil)
	_ ports.AnimationPort  = (*nopAnimator)(nil)
	_ ports.AudioPort      = nopAudio{}
	_ ports.EffectsPort    = nopEffects{}
)
