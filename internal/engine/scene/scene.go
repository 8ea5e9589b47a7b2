// Package scene holds the drawable set a bake captures.
//
// Objects are deliberately minimal: a triangle mesh, a material that
// decides the packed fragment value, and a world transform. Mesh and
// material readiness models GPU uploads that have not completed yet,
// which the bake orchestrator must wait out.
package scene

import "github.com/Faultbox/boimp/pkg/math"

// Mesh is a triangle list with a precomputed local bounding sphere.
type Mesh struct {
	Vertices []math.Vec3
	Indices  []uint32

	BoundsCenter math.Vec3
	BoundsRadius float32

	// Ready reports whether the vertex data is resident on the device.
	Ready bool
}

// NewMesh builds a mesh and computes its bounding sphere.
func NewMesh(vertices []math.Vec3, indices []uint32) *Mesh {
	m := &Mesh{Vertices: vertices, Indices: indices}
	if len(vertices) == 0 {
		return m
	}

	var sum math.Vec3
	for _, v := range vertices {
		sum = sum.Add(v)
	}
	m.BoundsCenter = sum.Scale(1 / float32(len(vertices)))
	for _, v := range vertices {
		if d := v.Distance(m.BoundsCenter); d > m.BoundsRadius {
			m.BoundsRadius = d
		}
	}
	return m
}

// Material decides the packed RG32 value a fragment writes. The two
// channels carry the base color/depth and the normal/flags words.
type Material struct {
	ChannelR uint32
	ChannelG uint32

	// Ready reports whether the material's pipeline is built.
	Ready bool
}

// Object is one drawable scene entry.
type Object struct {
	Mesh      *Mesh
	Material  *Material
	Transform math.Transform

	// NoCulling opts the object out of capture-sphere culling.
	NoCulling bool
}

// Bounds returns the object's world-space bounding sphere.
func (o *Object) Bounds() (center math.Vec3, radius float32) {
	if o.Mesh == nil {
		return o.Transform.Position, 0
	}
	return o.Transform.Position.Add(o.Mesh.BoundsCenter), o.Mesh.BoundsRadius
}

// Drawable reports whether both mesh and material resources are
// resident, so a draw for this object would actually execute.
func (o *Object) Drawable() bool {
	return o.Mesh != nil && o.Material != nil && o.Mesh.Ready && o.Material.Ready
}

// Scene is the drawable set.
type Scene struct {
	Objects []*Object
}

// Add appends an object and returns it for further setup.
func (s *Scene) Add(o *Object) *Object {
	s.Objects = append(s.Objects, o)
	return o
}

// NewQuad builds a two-triangle quad spanning the given edge vectors
// around the local origin.
func NewQuad(edgeU, edgeV math.Vec3) *Mesh {
	hu := edgeU.Scale(0.5)
	hv := edgeV.Scale(0.5)
	verts := []math.Vec3{
		hu.Scale(-1).Sub(hv),
		hu.Sub(hv),
		hu.Add(hv),
		hu.Scale(-1).Add(hv),
	}
	return NewMesh(verts, []uint32{0, 1, 2, 0, 2, 3})
}
