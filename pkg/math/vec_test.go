package math

import "testing"

func almostEqual(a, b float32) bool {
	d := a - b
	return d < 1e-5 && d > -1e-5
}

func TestVec3_AddSub(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	sum := a.Add(b)
	if sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v, expected {5 7 9}", sum)
	}

	diff := b.Sub(a)
	if diff != (Vec3{3, 3, 3}) {
		t.Errorf("Sub = %v, expected {3 3 3}", diff)
	}
}

func TestVec3_DotCross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}

	if x.Dot(y) != 0 {
		t.Errorf("Dot of orthogonal vectors = %f, expected 0", x.Dot(y))
	}

	z := x.Cross(y)
	if z != (Vec3{0, 0, 1}) {
		t.Errorf("X cross Y = %v, expected {0 0 1}", z)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := Vec3{3, 4, 0}
	n := v.Normalize()

	if !almostEqual(n.Length(), 1.0) {
		t.Errorf("normalized length = %f, expected 1", n.Length())
	}
	if !almostEqual(n.X, 0.6) || !almostEqual(n.Y, 0.8) {
		t.Errorf("Normalize = %v, expected {0.6 0.8 0}", n)
	}

	// Zero vector stays zero instead of producing NaN
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("normalizing zero vector should return zero")
	}
}

func TestVec3_Distance(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{0, 3, 4}
	if !almostEqual(a.Distance(b), 5) {
		t.Errorf("Distance = %f, expected 5", a.Distance(b))
	}
}

func TestVec2_Cross(t *testing.T) {
	a := Vec2{1, 0}
	b := Vec2{0, 1}

	if a.Cross(b) != 1 {
		t.Errorf("Cross = %f, expected 1", a.Cross(b))
	}
	if b.Cross(a) != -1 {
		t.Errorf("reverse Cross = %f, expected -1", b.Cross(a))
	}
}
