package utils

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// 三维向量与朝向工具
//
// 坐标约定：Y 轴向上，+Z 为正前方。

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// LookRotation 返回使 +Z 指向 dir 的朝向（只含偏航和俯仰，没有滚转）
// dir 为零向量时返回单位四元数
func LookRotation(dir mgl64.Vec3) mgl64.Quat {
	l := dir.Len()
	if l < 1e-12 {
		return mgl64.QuatIdent()
	}
	d := dir.Mul(1 / l)
	yaw := math.Atan2(d.X(), d.Z())
	pitch := -math.Asin(mgl64.Clamp(d.Y(), -1, 1))
	return mgl64.QuatRotate(yaw, axisY).Mul(mgl64.QuatRotate(pitch, axisX))
}

// YawRotation 只保留水平分量的朝向，用于角色转身（不会前后倾斜）
// 第二个返回值为 false 表示方向水平分量为零
func YawRotation(dir mgl64.Vec3) (mgl64.Quat, bool) {
	flat := mgl64.Vec3{dir.X(), 0, dir.Z()}
	if flat.Len() < 1e-9 {
		return mgl64.QuatIdent(), false
	}
	return LookRotation(flat), true
}

// EulerDegrees 按 Z → X → Y 的顺序组合欧拉角（角度）
func EulerDegrees(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), axisX)
	qy := mgl64.QuatRotate(mgl64.DegToRad(y), axisY)
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), axisZ)
	return qy.Mul(qx).Mul(qz)
}

// Reflect 向量 v 关于法线 n 的反射
func Reflect(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// SafeNormalize 归一化，零向量返回零向量
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// RandomOnUnitSphere 单位球面上的均匀随机点
func RandomOnUnitSphere(rng *rand.Rand) mgl64.Vec3 {
	z := rng.Float64()*2 - 1
	a := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(a), r * math.Sin(a), z}
}

// RandomInsideUnitSphere 单位球内的均匀随机点
func RandomInsideUnitSphere(rng *rand.Rand) mgl64.Vec3 {
	return RandomOnUnitSphere(rng).Mul(math.Cbrt(rng.Float64()))
}

// RandomRange 返回 [min, max) 内的随机数
func RandomRange(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

// FlatDistance 忽略高度的水平距离
func FlatDistance(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	d[1] = 0
	return d.Len()
}
