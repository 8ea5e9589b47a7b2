package math

import "testing"

func TestTransform_LookingAtMatchesLookAt(t *testing.T) {
	eyes := []Vec3{
		{0, 0, 5},
		{3, 1, -2},
		{-4, 2, 0},
	}
	target := Vec3{0, 0, 0}
	up := Vec3{0, 1, 0}

	for _, eye := range eyes {
		want := LookAt(eye, target, up)
		got := LookingAt(eye, target, up).ViewMatrix()
		for i := range want {
			if !almostEqual(want[i], got[i]) {
				t.Fatalf("eye %v: element %d = %f, expected %f", eye, i, got[i], want[i])
			}
		}
	}
}

func TestTransform_IdentityMatrix(t *testing.T) {
	m := TransformIdentity().Matrix()
	if m != Identity() {
		t.Errorf("identity transform matrix = %v", m)
	}
}

func TestTransform_ViewInvertsPose(t *testing.T) {
	pose := Transform{
		Position: Vec3{1, 2, 3},
		Rotation: QuatFromAxisAngle(Vec3{0, 1, 0}, 1.2),
	}

	// A point at the pose origin lands at the view-space origin.
	p := pose.ViewMatrix().TransformVec3(pose.Position)
	if !vecAlmostEqual(p, Vec3{}) {
		t.Errorf("pose origin in view space = %v, expected origin", p)
	}
}

func TestQuat_MulIdentity(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.7)
	r := q.Mul(QuatIdentity())
	if !almostEqual(r.X, q.X) || !almostEqual(r.Y, q.Y) || !almostEqual(r.Z, q.Z) || !almostEqual(r.W, q.W) {
		t.Errorf("q * identity = %v, expected %v", r, q)
	}
}
