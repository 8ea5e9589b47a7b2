package bake

import (
	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/pkg/math"
)

// Rect is a viewport rectangle in texels.
type Rect struct {
	X, Y, W, H int
}

// ReadbackFunc receives the CPU copy of the atlas. Rows may be padded
// to the device's row alignment; bytesPerRow gives the actual stride.
// Called from a backend-owned goroutine, never the render thread.
type ReadbackFunc func(data []byte, bytesPerRow int, err error)

// Backend is the rendering device a session drives. Implementations
// own an atlas render target sized atlasSize squared and, for
// multisampled sessions, an intermediate target sized
// intermediateSize squared that one tile at a time renders into.
type Backend interface {
	// Prepare (re)allocates the render targets. The atlas starts
	// zeroed. Called once per session before the first tile.
	Prepare(atlasSize, intermediateSize int) error

	// RenderTile draws the given objects with the tile's camera into
	// viewport, targeting the intermediate buffer when intermediate is
	// set and the atlas otherwise. When clear is set the whole target
	// is zeroed first. Returns the number of draws that executed.
	RenderTile(view, proj math.Mat4, viewport Rect, intermediate, clear bool, objs []*scene.Object) int

	// Resolve box-filters the intermediate buffer down into the atlas
	// rectangle dst. The source is the region at the intermediate
	// buffer's origin sized dst.W*samples by dst.H*samples.
	Resolve(dst Rect, samples int)

	// CopyToTarget copies the finished atlas into the registered
	// persistent target, if any.
	CopyToTarget()

	// Readback asynchronously copies the atlas to the CPU and invokes
	// fn exactly once when the copy completes.
	Readback(fn ReadbackFunc)
}
