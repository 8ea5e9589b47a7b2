package render

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/Faultbox/boimp/internal/engine/bake"
	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/pkg/formats"
	"github.com/Faultbox/boimp/pkg/math"
)

// frontPose is a camera one unit up the Z axis looking at the origin.
func frontPose() math.Transform {
	return math.LookingAt(math.Vec3{Z: 1}, math.Vec3{}, math.Vec3{Y: 1})
}

// quadScene returns a unit quad in the XY plane at the origin, with
// the given packed material value.
func quadScene(r, g uint32) *scene.Scene {
	mesh := scene.NewQuad(math.Vec3{X: 1}, math.Vec3{Y: 1})
	mesh.Ready = true
	sc := &scene.Scene{}
	sc.Add(&scene.Object{
		Mesh:      mesh,
		Material:  &scene.Material{ChannelR: r, ChannelG: g, Ready: true},
		Transform: math.TransformIdentity(),
	})
	return sc
}

func texelAt(img *formats.Image, x, y int) (uint32, uint32) {
	t := img.Texel(x, y)
	return binary.LittleEndian.Uint32(t[:4]), binary.LittleEndian.Uint32(t[4:])
}

func TestBake_SingleTileQuad(t *testing.T) {
	backend := NewSoft()
	s := bake.NewSession(backend)
	s.GridSize = 1
	s.TileSize = 64
	s.Multisample = 1
	s.ManualPoses = []math.Transform{frontPose()}

	if err := s.Tick(quadScene(7, 9)); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if s.Phase() != bake.PhaseFinished {
		t.Fatalf("phase = %v, expected finished after one frame", s.Phase())
	}

	// The unit quad under a radius-1 orthographic camera covers the
	// central half of the tile: pixels 16..47 on both axes.
	atlas := backend.Atlas()
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			r, g := texelAt(atlas, x, y)
			inside := x >= 16 && x < 48 && y >= 16 && y < 48
			if inside && (r != 7 || g != 9) {
				t.Fatalf("texel (%d,%d) = %d/%d inside the quad", x, y, r, g)
			}
			if !inside && (r != 0 || g != 0) {
				t.Fatalf("texel (%d,%d) = %d/%d outside the quad", x, y, r, g)
			}
		}
	}
}

func TestBake_MultisampleMatchesSingleSample(t *testing.T) {
	// Pixel-aligned quad edges resolve exactly, so the multisampled
	// bake must reproduce the single-sample atlas bit for bit.
	poses := make([]math.Transform, 16)
	for i := range poses {
		poses[i] = frontPose()
	}

	run := func(samples, maxPerFrame int) (*formats.Image, int) {
		backend := NewSoft()
		s := bake.NewSession(backend)
		s.GridSize = 4
		s.TileSize = 16
		s.Multisample = samples
		s.MaxTilesPerFrame = maxPerFrame
		s.ManualPoses = poses

		sc := quadScene(200, 50)
		frames := 0
		for s.Phase() != bake.PhaseFinished {
			if err := s.Tick(sc); err != nil {
				t.Fatalf("Tick failed: %v", err)
			}
			frames++
			if frames > 32 {
				t.Fatal("bake never finished")
			}
		}
		return backend.Atlas(), frames
	}

	plain, _ := run(1, 0)
	sampled, frames := run(4, 4)

	if frames != 4 {
		t.Errorf("4 tiles per frame took %d frames, expected 4", frames)
	}
	if !bytes.Equal(plain.Pix, sampled.Pix) {
		t.Error("multisampled atlas differs from single-sample atlas")
	}
}

func TestRenderTile_DepthTest(t *testing.T) {
	front := scene.NewQuad(math.Vec3{X: 1}, math.Vec3{Y: 1})
	front.Ready = true
	back := scene.NewQuad(math.Vec3{X: 2}, math.Vec3{Y: 2})
	back.Ready = true

	sc := &scene.Scene{}
	// The back quad sits at the origin, the front one halfway to the
	// camera.
	sc.Add(&scene.Object{
		Mesh:      back,
		Material:  &scene.Material{ChannelR: 1, Ready: true},
		Transform: math.TransformIdentity(),
	})
	sc.Add(&scene.Object{
		Mesh:     front,
		Material: &scene.Material{ChannelR: 2, Ready: true},
		Transform: math.Transform{
			Position: math.Vec3{Z: 0.5},
			Rotation: math.QuatIdentity(),
		},
	})

	backend := NewSoft()
	s := bake.NewSession(backend)
	s.GridSize = 1
	s.TileSize = 32
	s.Multisample = 1
	s.ManualPoses = []math.Transform{frontPose()}

	if err := s.Tick(sc); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	atlas := backend.Atlas()
	if r, _ := texelAt(atlas, 16, 16); r != 2 {
		t.Errorf("center texel = %d, expected the front quad's value 2", r)
	}
	if r, _ := texelAt(atlas, 2, 2); r != 1 {
		t.Errorf("corner texel = %d, expected the back quad's value 1", r)
	}
}

func TestResolve_AveragesByteLanes(t *testing.T) {
	b := NewSoft()
	if err := b.Prepare(2, 4); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	// One destination texel averages a 2x2 source block per byte lane.
	vals := []byte{10, 20, 30, 40}
	for i, v := range vals {
		si := ((i/2)*4 + i%2) * formats.PixelSize
		for k := 0; k < formats.PixelSize; k++ {
			b.inter[si+k] = v
		}
	}

	b.Resolve(bake.Rect{X: 0, Y: 0, W: 1, H: 1}, 2)
	for k := 0; k < formats.PixelSize; k++ {
		if b.atlas[k] != 25 {
			t.Fatalf("resolved byte %d = %d, expected 25", k, b.atlas[k])
		}
	}
}

func TestReadback_PadsRows(t *testing.T) {
	b := NewSoft()
	if err := b.Prepare(4, 4); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	for i := range b.atlas {
		b.atlas[i] = byte(i)
	}

	done := make(chan struct{})
	b.Readback(func(data []byte, bytesPerRow int, err error) {
		defer close(done)
		if err != nil {
			t.Errorf("readback error: %v", err)
			return
		}
		if bytesPerRow != readbackAlign {
			t.Errorf("bytesPerRow = %d, expected %d", bytesPerRow, readbackAlign)
		}
		rowBytes := 4 * formats.PixelSize
		for y := 0; y < 4; y++ {
			got := data[y*bytesPerRow : y*bytesPerRow+rowBytes]
			want := b.atlas[y*rowBytes : (y+1)*rowBytes]
			if !bytes.Equal(got, want) {
				t.Errorf("row %d content mismatch", y)
			}
		}
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readback never completed")
	}
}

func TestCopyToTarget(t *testing.T) {
	target := &formats.Image{}
	b := NewSoft()
	b.SetTarget(target)
	if err := b.Prepare(2, 2); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	for i := range b.atlas {
		b.atlas[i] = byte(i + 1)
	}

	b.CopyToTarget()
	if target.Width != 2 || target.Height != 2 {
		t.Fatalf("target = %dx%d, expected 2x2", target.Width, target.Height)
	}
	if !bytes.Equal(target.Pix, b.atlas) {
		t.Error("target content differs from atlas")
	}
}
