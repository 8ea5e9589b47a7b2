package bake

import (
	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/pkg/math"
)

// Visible reports whether the object's bounding sphere intersects the
// capture sphere. Objects that opt out of culling always pass.
func Visible(center math.Vec3, radius float32, o *scene.Object) bool {
	if o.NoCulling {
		return true
	}
	oc, or := o.Bounds()
	return oc.Distance(center) <= radius+or
}

// VisibleObjects selects the scene objects inside the capture sphere.
func VisibleObjects(s *scene.Scene, center math.Vec3, radius float32) []*scene.Object {
	var out []*scene.Object
	for _, o := range s.Objects {
		if Visible(center, radius, o) {
			out = append(out, o)
		}
	}
	return out
}

// ExpectedDraws counts the objects that will draw once their resources
// finish uploading. Comparing this against the draws that actually
// executed detects captures taken before the scene was ready.
func ExpectedDraws(objs []*scene.Object) int {
	n := 0
	for _, o := range objs {
		if o.Mesh != nil && o.Material != nil {
			n++
		}
	}
	return n
}
