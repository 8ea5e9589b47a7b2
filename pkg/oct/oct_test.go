package oct

import (
	"testing"

	"github.com/Faultbox/boimp/pkg/math"
)

const epsilon = 1e-5

func TestDirectionFromGrid_UnitLength(t *testing.T) {
	modes := []GridMode{Spherical, Hemispherical, Horizontal}
	sizes := []int{1, 2, 8, 16}

	for _, mode := range modes {
		for _, n := range sizes {
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					dir, up := DirectionFromGrid(x, y, mode, n)
					if l := dir.Length(); l < 1-epsilon || l > 1+epsilon {
						t.Fatalf("mode %v size %d cell (%d,%d): |dir| = %f", mode, n, x, y, l)
					}
					if l := up.Length(); l < 1-epsilon || l > 1+epsilon {
						t.Fatalf("mode %v size %d cell (%d,%d): |up| = %f", mode, n, x, y, l)
					}
				}
			}
		}
	}
}

func TestDirectionFromGrid_SphericalCoversBothHemispheres(t *testing.T) {
	// n=2 is excluded: its four cells sample only the UV corners, which
	// all fold to the south pole. Pinned below.
	for _, n := range []int{3, 8, 16} {
		var above, below bool
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dir, _ := DirectionFromGrid(x, y, Spherical, n)
				if dir.Y > 0 {
					above = true
				}
				if dir.Y < 0 {
					below = true
				}
			}
		}
		if !above || !below {
			t.Errorf("size %d: spherical grid covers above=%v below=%v", n, above, below)
		}
	}
}

func TestDirectionFromGrid_SphericalTwoByTwoIsAllSouthPole(t *testing.T) {
	// A 2x2 spherical grid samples the four UV corners and every corner
	// folds to (0,-1,0). Degenerate but stable; sampling shaders invert
	// the same mapping, so the behavior must not drift.
	south := math.Vec3{Y: -1}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			dir, _ := DirectionFromGrid(x, y, Spherical, 2)
			if dir != south {
				t.Errorf("cell (%d,%d): dir = %v, expected %v", x, y, dir, south)
			}
		}
	}
}

func TestDirectionFromGrid_HemisphericalStaysAboveEquator(t *testing.T) {
	for _, n := range []int{1, 2, 8, 16} {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dir, _ := DirectionFromGrid(x, y, Hemispherical, n)
				if dir.Y < -epsilon {
					t.Fatalf("size %d cell (%d,%d): dir.Y = %f dips below equator", n, x, y, dir.Y)
				}
			}
		}
	}
}

func TestDirectionFromGrid_HorizontalStaysOnEquator(t *testing.T) {
	n := 4
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dir, up := DirectionFromGrid(x, y, Horizontal, n)
			if dir.Y != 0 {
				t.Fatalf("cell (%d,%d): dir.Y = %f, expected 0", x, y, dir.Y)
			}
			if up != (math.Vec3{Y: 1}) {
				t.Fatalf("cell (%d,%d): up = %v, expected Y axis", x, y, up)
			}
		}
	}
}

func TestDirectionFromGrid_MatchesUVForm(t *testing.T) {
	for _, mode := range []GridMode{Spherical, Hemispherical, Horizontal} {
		n := 8
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				gd, gu := DirectionFromGrid(x, y, mode, n)
				uv := math.Vec2{X: float32(x) / float32(n-1), Y: float32(y) / float32(n-1)}
				ud, uu := DirectionFromUV(uv, mode, n)
				if gd != ud || gu != uu {
					t.Fatalf("mode %v cell (%d,%d): grid form %v/%v != uv form %v/%v",
						mode, x, y, gd, gu, ud, uu)
				}
			}
		}
	}
}

func TestDirectionFromGrid_SingleCell(t *testing.T) {
	// gridSize 1 must not divide by zero; the sole cell uses UV (0,0).
	for _, mode := range []GridMode{Spherical, Hemispherical, Horizontal} {
		dir, _ := DirectionFromGrid(0, 0, mode, 1)
		if l := dir.Length(); l < 1-epsilon || l > 1+epsilon {
			t.Errorf("mode %v: |dir| = %f for single cell", mode, l)
		}
	}
}

func TestDirectionFromUV_PoleUsesZUp(t *testing.T) {
	// The UV center of a spherical grid points straight up; a Y-axis up
	// vector would be degenerate there.
	dir, up := DirectionFromUV(math.Vec2{X: 0.5, Y: 0.5}, Spherical, 8)
	if dir.Y < 0.99 {
		t.Fatalf("center direction = %v, expected near +Y", dir)
	}
	if up != (math.Vec3{Z: 1}) {
		t.Errorf("up = %v, expected Z axis near pole", up)
	}
}

func TestGridMode_FlagsRoundTrip(t *testing.T) {
	for _, mode := range []GridMode{Spherical, Hemispherical, Horizontal} {
		// Round-trip through the 2-bit mask, with unrelated flag bits set.
		flags := mode.Flags() | 0x1c
		if got := ModeFromFlags(flags); got != mode {
			t.Errorf("mode %v: flags round-trip gave %v", mode, got)
		}
	}
}

func TestGridMode_StringRoundTrip(t *testing.T) {
	tests := []struct {
		mode GridMode
		name string
	}{
		{Spherical, "spherical"},
		{Hemispherical, "hemispherical"},
		{Horizontal, "Horizontal"},
	}

	for _, tc := range tests {
		if tc.mode.String() != tc.name {
			t.Errorf("%d.String() = %q, expected %q", tc.mode, tc.mode.String(), tc.name)
		}
		mode, err := ParseGridMode(tc.name)
		if err != nil {
			t.Errorf("ParseGridMode(%q) failed: %v", tc.name, err)
		}
		if mode != tc.mode {
			t.Errorf("ParseGridMode(%q) = %v, expected %v", tc.name, mode, tc.mode)
		}
	}

	if _, err := ParseGridMode("cylindrical"); err == nil {
		t.Error("expected error for unknown mode string")
	}
}
