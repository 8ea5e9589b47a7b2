package bake

import (
	"github.com/Faultbox/boimp/pkg/math"
	"github.com/Faultbox/boimp/pkg/oct"
)

// tileRect returns the atlas viewport of grid cell (x, y).
func tileRect(x, y, tileSize int) Rect {
	return Rect{X: x * tileSize, Y: y * tileSize, W: tileSize, H: tileSize}
}

// tileCamera returns the view and projection matrices for grid cell
// (x, y). Manual poses take precedence over the grid mapping; the
// projection is always an orthographic box enclosing the capture
// sphere.
func (s *Session) tileCamera(x, y int) (view, proj math.Mat4) {
	proj = math.Ortho(-s.Radius, s.Radius, -s.Radius, s.Radius, 0, 2*s.Radius)

	if len(s.ManualPoses) > 0 {
		view = s.ManualPoses[y*s.GridSize+x].ViewMatrix()
		return view, proj
	}

	dir, up := oct.DirectionFromGrid(x, y, s.Mode, s.GridSize)
	eye := s.Center.Add(dir.Scale(s.Radius))
	view = math.LookAt(eye, s.Center, up)
	return view, proj
}
