package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	got := AxisX.Cross(AxisY)
	if got != AxisZ {
		t.Errorf("Vec3.Cross() = %v, want %v", got, AxisZ)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 12}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("normalizing the zero vector should return zero")
	}
}

func TestVec3Array(t *testing.T) {
	a := [3]float32{-50, 50, -14}
	if got := V3(a).Array(); got != a {
		t.Errorf("V3(a).Array() = %v, want %v", got, a)
	}
}

func TestRadians(t *testing.T) {
	if got := Radians(180); abs(got-3.14159265) > 1e-6 {
		t.Errorf("Radians(180) = %v, want pi", got)
	}
}
