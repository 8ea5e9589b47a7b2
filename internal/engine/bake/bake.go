package bake

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/internal/logger"
	"github.com/Faultbox/boimp/pkg/formats"
)

// Tick advances the session by one frame. Readiness stalls are not
// errors; only invalid configuration fails. Finished non-continuous
// sessions are a no-op.
func (s *Session) Tick(sc *scene.Scene) error {
	if s.GridSize < 1 || s.TileSize < 1 || s.Multisample < 1 {
		return fmt.Errorf("%w: grid %d, tile %d, multisample %d",
			ErrBadConfig, s.GridSize, s.TileSize, s.Multisample)
	}
	total := s.GridSize * s.GridSize
	if len(s.ManualPoses) > 0 && len(s.ManualPoses) < total {
		return fmt.Errorf("%w: %d poses for %d tiles", ErrMissingPoses, len(s.ManualPoses), total)
	}

	s.drain()

	switch s.Phase() {
	case PhaseResolving:
		// Readback still in flight
		return nil
	case PhaseFinished:
		if !s.Continuous {
			return nil
		}
		s.reset()
	case PhaseIdle:
		if err := s.backend.Prepare(s.TileSize*s.GridSize, s.TileSize*s.Multisample); err != nil {
			return fmt.Errorf("preparing bake targets: %w", err)
		}
		s.setPhase(PhaseCapturing)
	}

	objs := VisibleObjects(sc, s.Center, s.Radius)
	expected := ExpectedDraws(objs)

	budget := s.MaxTilesPerFrame
	if budget <= 0 || budget > total {
		budget = total
	}

	multisampled := s.Multisample > 1
	for n := 0; n < budget && s.Rendered() < total; n++ {
		idx := s.Rendered()
		x, y := idx%s.GridSize, idx/s.GridSize
		view, proj := s.tileCamera(x, y)

		vp := tileRect(x, y, s.TileSize)
		clear := idx == 0
		if multisampled {
			vp = Rect{W: s.TileSize * s.Multisample, H: s.TileSize * s.Multisample}
			clear = true
		}

		draws := s.backend.RenderTile(view, proj, vp, multisampled, clear, objs)
		if idx == 0 && s.WaitForRender && draws < expected {
			// Resources not resident yet. Skip the resolve so the
			// retry next frame starts from a clean intermediate.
			logger.Debug("bake waiting for scene readiness",
				zap.Int("drawn", draws), zap.Int("expected", expected))
			return nil
		}
		if multisampled {
			s.backend.Resolve(tileRect(x, y, s.TileSize), s.Multisample)
		}
		s.addRendered()
	}

	if s.Rendered() == total {
		s.finish()
	}
	return nil
}

// finish runs once all tiles of a pass are rendered: copy the atlas
// into the persistent target, then either hand the atlas to the
// callback through an async readback or complete immediately.
func (s *Session) finish() {
	s.backend.CopyToTarget()

	cb := s.takeCallback()
	if cb == nil {
		s.setPhase(PhaseFinished)
		logger.Debug("bake pass finished", zap.Int("tiles", s.Rendered()))
		return
	}

	s.setPhase(PhaseResolving)
	size := s.TileSize * s.GridSize
	s.backend.Readback(func(data []byte, bytesPerRow int, err error) {
		if err != nil {
			logger.Error("atlas readback failed", zap.Error(err))
			cb(nil, err)
		} else {
			cb(stripRows(data, bytesPerRow, size), nil)
		}
		s.trySend(PhaseFinished)
	})
}

// stripRows drops per-row alignment padding from a readback buffer.
func stripRows(data []byte, bytesPerRow, size int) *formats.Image {
	img := formats.NewImage(size, size)
	rowBytes := size * formats.PixelSize
	if bytesPerRow == rowBytes {
		copy(img.Pix, data)
		return img
	}
	for y := 0; y < size; y++ {
		copy(img.Pix[y*rowBytes:(y+1)*rowBytes], data[y*bytesPerRow:y*bytesPerRow+rowBytes])
	}
	return img
}
