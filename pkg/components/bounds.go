package components

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BoundsComponent 实体的轴对齐包围盒（相对实体位置）
// 用于视线检测采样角点以及区域触发判定
type BoundsComponent struct {
	Center      mgl64.Vec3 // 包围盒中心相对实体位置的偏移
	HalfExtents mgl64.Vec3 // 半边长
}

// MinMax 返回以 pos 为实体位置时的世界包围盒
func (b *BoundsComponent) MinMax(pos mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	c := pos.Add(b.Center)
	return c.Sub(b.HalfExtents), c.Add(b.HalfExtents)
}

// Corners 返回世界包围盒的 8 个角点
// 顺序：min, max, 其余六个混合角点
func (b *BoundsComponent) Corners(pos mgl64.Vec3) [8]mgl64.Vec3 {
	mn, mx := b.MinMax(pos)
	return [8]mgl64.Vec3{
		mn,
		mx,
		{mn.X(), mn.Y(), mx.Z()},
		{mn.X(), mx.Y(), mn.Z()},
		{mx.X(), mn.Y(), mn.Z()},
		{mn.X(), mx.Y(), mx.Z()},
		{mx.X(), mn.Y(), mx.Z()},
		{mx.X(), mx.Y(), mn.Z()},
	}
}

// Contains 判断世界坐标点是否位于包围盒内
func (b *BoundsComponent) Contains(pos, point mgl64.Vec3) bool {
	mn, mx := b.MinMax(pos)
	return point.X() >= mn.X() && point.X() <= mx.X() &&
		point.Y() >= mn.Y() && point.Y() <= mx.Y() &&
		point.Z() >= mn.Z() && point.Z() <= mx.Z()
}

// Overlaps 判断两个世界包围盒是否重叠
func Overlaps(aMin, aMax, bMin, bMax mgl64.Vec3) bool {
	return aMax.X() >= bMin.X() && aMin.X() <= bMax.X() &&
		aMax.Y() >= bMin.Y() && aMin.Y() <= bMax.Y() &&
		aMax.Z() >= bMin.Z() && aMin.Z() <= bMax.Z()
}
