package utils

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vecClose(a, b mgl64.Vec3, eps float64) bool {
	return a.Sub(b).Len() <= eps
}

// TestLookRotation 测试朝向计算：旋转后的 +Z 应与方向一致
func TestLookRotation(t *testing.T) {
	dirs := []mgl64.Vec3{
		{0, 0, 1},
		{1, 0, 0},
		{0, 0, -1},
		{-1, 0, 0},
		{1, 1, 1},
		{0.3, -0.8, 0.2},
	}
	for _, d := range dirs {
		q := LookRotation(d)
		got := q.Rotate(mgl64.Vec3{0, 0, 1})
		if !vecClose(got, d.Normalize(), 1e-9) {
			t.Errorf("LookRotation(%v) forward = %v", d, got)
		}
		// 没有滚转：右方向保持水平
		right := q.Rotate(mgl64.Vec3{1, 0, 0})
		if math.Abs(right.Y()) > 1e-9 {
			t.Errorf("LookRotation(%v) has roll, right = %v", d, right)
		}
	}

	if LookRotation(mgl64.Vec3{}) != mgl64.QuatIdent() {
		t.Error("Expected identity for zero direction")
	}
}

// TestYawRotation 测试只保留偏航的转身
func TestYawRotation(t *testing.T) {
	q, ok := YawRotation(mgl64.Vec3{3, 5, 0})
	if !ok {
		t.Fatal("Expected yaw rotation to succeed")
	}
	fwd := q.Rotate(mgl64.Vec3{0, 0, 1})
	if !vecClose(fwd, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("Expected forward (1,0,0), got %v", fwd)
	}

	if _, ok := YawRotation(mgl64.Vec3{0, 2, 0}); ok {
		t.Error("Expected vertical direction to have no yaw")
	}
}

// TestEulerDegrees 测试欧拉角组合
func TestEulerDegrees(t *testing.T) {
	got := EulerDegrees(0, 90, 0).Rotate(mgl64.Vec3{0, 0, 1})
	if !vecClose(got, mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("Expected yaw 90 to face +X, got %v", got)
	}
	got = EulerDegrees(90, 0, 0).Rotate(mgl64.Vec3{0, 0, 1})
	if !vecClose(got, mgl64.Vec3{0, -1, 0}, 1e-9) {
		t.Errorf("Expected pitch 90 to face down, got %v", got)
	}
}

// TestReflect 测试反射
func TestReflect(t *testing.T) {
	got := Reflect(mgl64.Vec3{1, -1, 0}, mgl64.Vec3{0, 1, 0})
	if !vecClose(got, mgl64.Vec3{1, 1, 0}, 1e-12) {
		t.Errorf("Expected (1,1,0), got %v", got)
	}
}

// TestRandomSphere 测试随机球面/球内采样
func TestRandomSphere(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		on := RandomOnUnitSphere(rng)
		if math.Abs(on.Len()-1) > 1e-9 {
			t.Fatalf("Expected unit length, got %f", on.Len())
		}
		in := RandomInsideUnitSphere(rng)
		if in.Len() > 1+1e-9 {
			t.Fatalf("Expected inside unit sphere, got %f", in.Len())
		}
	}
}

// TestSafeNormalize 测试零向量归一化
func TestSafeNormalize(t *testing.T) {
	if SafeNormalize(mgl64.Vec3{}) != (mgl64.Vec3{}) {
		t.Error("Expected zero vector")
	}
	if !vecClose(SafeNormalize(mgl64.Vec3{0, 3, 4}), mgl64.Vec3{0, 0.6, 0.8}, 1e-12) {
		t.Error("Expected normalized vector")
	}
}
