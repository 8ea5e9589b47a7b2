// Package oct maps impostor grid cells to 3D capture directions.
//
// An impostor atlas stores one snapshot per cell of an N×N grid. Each
// cell corresponds to a capture direction: the spherical mode spreads
// directions over the whole sphere with an octahedral projection, the
// hemispherical mode covers only the upper hemisphere, and the
// horizontal mode places directions on a ring in the XZ plane. The
// sampling shader inverts the same mapping at draw time, so the forward
// map here must stay bit-stable.
package oct

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/boimp/pkg/math"
)

// GridMode selects the direction-mapping formula for a capture grid.
type GridMode uint32

const (
	// Spherical covers the full sphere via octahedral projection.
	Spherical GridMode = 0
	// Hemispherical covers the upper hemisphere via hemi-octahedral
	// projection.
	Hemispherical GridMode = 1
	// Horizontal places directions evenly on a circle in the XZ plane.
	Horizontal GridMode = 2
)

// ModeMask is the 2-bit flags mask that persists a GridMode.
const ModeMask uint32 = 0x3

// ErrUnknownGridMode is returned for an unrecognized mode string.
var ErrUnknownGridMode = errors.New("oct: unknown grid mode")

// Flags returns the mode's 2-bit flag encoding.
func (m GridMode) Flags() uint32 {
	return uint32(m) & ModeMask
}

// ModeFromFlags decodes a GridMode from the low bits of a flags field.
func ModeFromFlags(flags uint32) GridMode {
	return GridMode(flags & ModeMask)
}

// String returns the mode name as written in asset metadata. The
// odd capitalisation of "Horizontal" is load-bearing; existing assets
// carry it.
func (m GridMode) String() string {
	switch m {
	case Spherical:
		return "spherical"
	case Hemispherical:
		return "hemispherical"
	case Horizontal:
		return "Horizontal"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(m))
	}
}

// ParseGridMode parses a mode string from asset metadata.
func ParseGridMode(s string) (GridMode, error) {
	switch s {
	case "spherical":
		return Spherical, nil
	case "hemispherical":
		return Hemispherical, nil
	case "Horizontal":
		return Horizontal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGridMode, s)
	}
}

// DirectionFromUV returns the unit capture direction and camera up
// vector for a continuous grid coordinate in [0,1]².
func DirectionFromUV(uv math.Vec2, mode GridMode, gridSize int) (dir, up math.Vec3) {
	var n math.Vec3
	switch mode {
	case Hemispherical:
		x := uv.X - uv.Y
		z := -1 + uv.X + uv.Y
		y := 1 - math32.Abs(x) - math32.Abs(z)
		n = math.Vec3{X: x, Y: y, Z: z}
	case Horizontal:
		// Directions wind row-major around the circle; the continuous
		// form agrees with the grid form on exact grid points.
		index := uv.Y*float32(gridSize-1)*float32(gridSize) + uv.X*float32(gridSize-1)
		angle := 2 * math32.Pi * index / float32(gridSize*gridSize)
		n = math.Vec3{X: math32.Sin(angle), Y: 0, Z: math32.Cos(angle)}
	default: // Spherical
		x := uv.X*2 - 1
		z := uv.Y*2 - 1
		y := 1 - math32.Abs(x) - math32.Abs(z)
		if y < 0 {
			// Fold the lower octahedron half through the diagonal.
			x, z = math32.Copysign(1-math32.Abs(z), x), math32.Copysign(1-math32.Abs(x), z)
		}
		n = math.Vec3{X: x, Y: y, Z: z}
	}
	n = n.Normalize()

	up = math.Vec3{Y: 1}
	if math32.Abs(n.Y) > 0.99 {
		// Avoid a degenerate look-at basis near the poles.
		up = math.Vec3{Z: 1}
	}
	return n, up
}

// DirectionFromGrid returns the capture direction and up vector for the
// discrete cell (x, y). For gridSize 1 the sole cell maps to UV (0, 0);
// otherwise cells span the UV square inclusively.
func DirectionFromGrid(x, y int, mode GridMode, gridSize int) (dir, up math.Vec3) {
	var uv math.Vec2
	if gridSize > 1 {
		uv = math.Vec2{
			X: float32(x) / float32(gridSize-1),
			Y: float32(y) / float32(gridSize-1),
		}
	}
	return DirectionFromUV(uv, mode, gridSize)
}
