package scene

import (
	"testing"

	"github.com/Faultbox/boimp/pkg/math"
)

func TestNewMesh_Bounds(t *testing.T) {
	m := NewMesh([]math.Vec3{
		{X: -1}, {X: 1}, {Y: 1}, {Y: -1},
	}, []uint32{0, 1, 2, 0, 2, 3})

	if m.BoundsCenter != (math.Vec3{}) {
		t.Errorf("bounds center = %v, expected origin", m.BoundsCenter)
	}
	if m.BoundsRadius != 1 {
		t.Errorf("bounds radius = %f, expected 1", m.BoundsRadius)
	}
}

func TestNewQuad(t *testing.T) {
	q := NewQuad(math.Vec3{X: 2}, math.Vec3{Y: 2})

	if len(q.Vertices) != 4 || len(q.Indices) != 6 {
		t.Fatalf("quad has %d vertices, %d indices", len(q.Vertices), len(q.Indices))
	}
	for _, v := range q.Vertices {
		if v.X < -1 || v.X > 1 || v.Y < -1 || v.Y > 1 || v.Z != 0 {
			t.Errorf("vertex %v outside the 2x2 quad plane", v)
		}
	}
}

func TestObject_Drawable(t *testing.T) {
	mesh := NewQuad(math.Vec3{X: 1}, math.Vec3{Y: 1})
	mat := &Material{ChannelR: 1}
	o := &Object{Mesh: mesh, Material: mat}

	if o.Drawable() {
		t.Error("object drawable before resources are ready")
	}
	mesh.Ready = true
	mat.Ready = true
	if !o.Drawable() {
		t.Error("object not drawable with ready resources")
	}
}

func TestObject_Bounds(t *testing.T) {
	mesh := NewQuad(math.Vec3{X: 2}, math.Vec3{Y: 2})
	o := &Object{
		Mesh:      mesh,
		Transform: math.Transform{Position: math.Vec3{X: 5}, Rotation: math.QuatIdentity()},
	}

	center, radius := o.Bounds()
	if center != (math.Vec3{X: 5}) {
		t.Errorf("bounds center = %v, expected {5 0 0}", center)
	}
	if radius != mesh.BoundsRadius {
		t.Errorf("bounds radius = %f, expected %f", radius, mesh.BoundsRadius)
	}
}
