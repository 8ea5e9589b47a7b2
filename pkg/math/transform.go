package math

import "math"

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// Transform is a rigid pose: a position plus a rotation. The baker uses
// it for manual per-tile camera overrides.
type Transform struct {
	Position Vec3
	Rotation Quat
}

// TransformIdentity returns a transform at the origin with no rotation.
func TransformIdentity() Transform {
	return Transform{Rotation: QuatIdentity()}
}

// LookingAt returns a transform at eye oriented so that -Z points at
// target, matching the camera convention used by LookAt.
func LookingAt(eye, target, up Vec3) Transform {
	// Derive the rotation from the same basis LookAt builds, transposed
	// back into world space.
	f := target.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	// Rotation matrix columns are the camera basis vectors in world space.
	m := Mat4{
		s.X, s.Y, s.Z, 0,
		u.X, u.Y, u.Z, 0,
		-f.X, -f.Y, -f.Z, 0,
		0, 0, 0, 1,
	}
	return Transform{Position: eye, Rotation: quatFromMat4(m)}
}

// Matrix returns the world-from-local matrix for this pose.
func (t Transform) Matrix() Mat4 {
	return Translate(t.Position.X, t.Position.Y, t.Position.Z).Mul(t.Rotation.ToMat4())
}

// ViewMatrix returns the local-from-world matrix, i.e. the view matrix
// when the transform describes a camera pose.
func (t Transform) ViewMatrix() Mat4 {
	return t.Matrix().Inverse()
}

// quatFromMat4 extracts a rotation quaternion from a pure rotation matrix.
func quatFromMat4(m Mat4) Quat {
	trace := m[0] + m[5] + m[10]
	switch {
	case trace > 0:
		s := sqrtf(trace+1) * 2
		return Quat{
			X: (m[6] - m[9]) / s,
			Y: (m[8] - m[2]) / s,
			Z: (m[1] - m[4]) / s,
			W: s / 4,
		}.Normalize()
	case m[0] > m[5] && m[0] > m[10]:
		s := sqrtf(1+m[0]-m[5]-m[10]) * 2
		return Quat{
			X: s / 4,
			Y: (m[4] + m[1]) / s,
			Z: (m[8] + m[2]) / s,
			W: (m[6] - m[9]) / s,
		}.Normalize()
	case m[5] > m[10]:
		s := sqrtf(1+m[5]-m[0]-m[10]) * 2
		return Quat{
			X: (m[4] + m[1]) / s,
			Y: s / 4,
			Z: (m[9] + m[6]) / s,
			W: (m[8] - m[2]) / s,
		}.Normalize()
	default:
		s := sqrtf(1+m[10]-m[0]-m[5]) * 2
		return Quat{
			X: (m[8] + m[2]) / s,
			Y: (m[9] + m[6]) / s,
			Z: s / 4,
			W: (m[1] - m[4]) / s,
		}.Normalize()
	}
}
