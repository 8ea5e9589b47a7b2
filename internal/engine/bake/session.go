// Package bake orchestrates rendering an object's directional
// snapshots into a packed impostor atlas.
//
// A Session is driven one Tick per frame by the host. Each Tick
// renders up to MaxTilesPerFrame grid tiles, gated on the very first
// tile by scene readiness, and once all tiles are rendered it issues
// an asynchronous readback whose result feeds the session callback.
package bake

import (
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/boimp/internal/logger"
	"github.com/Faultbox/boimp/pkg/formats"
	"github.com/Faultbox/boimp/pkg/math"
	"github.com/Faultbox/boimp/pkg/oct"
)

// Session configuration errors.
var (
	ErrMissingPoses = errors.New("bake: manual pose list shorter than grid")
	ErrBadConfig    = errors.New("bake: invalid session configuration")
)

// Phase is the session state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCapturing
	PhaseResolving
	PhaseFinished
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCapturing:
		return "capturing"
	case PhaseResolving:
		return "resolving"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Callback receives the finished atlas as a CPU-resident image, with
// any row padding already stripped. It runs on a backend goroutine,
// not the render thread, and fires at most once per SetCallback.
type Callback func(img *formats.Image, err error)

// signalBound is the completion channel capacity. One readback is
// outstanding per session in practice; the bound covers a continuous
// session completing again before the host observed the previous
// signal. On overflow the new signal is dropped rather than blocking
// the sender.
const signalBound = 2

// Session owns one bake of an N by N capture grid.
//
// The exported fields configure the bake and are read on every Tick;
// change them only between sessions (before the first Tick or after
// the session finished).
type Session struct {
	// Center and Radius define the capture sphere.
	Center math.Vec3
	Radius float32

	GridSize    int
	TileSize    int
	Mode        oct.GridMode
	Multisample int

	// MaxTilesPerFrame caps tile renders per Tick. Zero means no cap.
	MaxTilesPerFrame int

	// WaitForRender retries the first tile until the scene's expected
	// draw count is met.
	WaitForRender bool

	// Continuous restarts tile filling after every completion, for
	// live impostors backed by a persistent target.
	Continuous bool

	// ManualPoses overrides the grid direction mapping. When set it
	// must hold at least GridSize squared entries.
	ManualPoses []math.Transform

	backend Backend

	mu       sync.Mutex
	phase    Phase
	rendered int
	callback Callback

	signal chan Phase
}

// NewSession returns a session with the default capture parameters.
func NewSession(backend Backend) *Session {
	return &Session{
		Radius:        1,
		GridSize:      8,
		TileSize:      64,
		Multisample:   8,
		WaitForRender: true,
		backend:       backend,
		signal:        make(chan Phase, signalBound),
	}
}

// Phase returns the current state machine position.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Rendered returns the number of tiles rendered so far this pass.
func (s *Session) Rendered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Session) addRendered() {
	s.mu.Lock()
	s.rendered++
	s.mu.Unlock()
}

func (s *Session) reset() {
	s.mu.Lock()
	s.rendered = 0
	s.phase = PhaseCapturing
	s.mu.Unlock()
}

// SetCallback installs the completion callback. It fires once, on the
// next completion, and is then cleared.
func (s *Session) SetCallback(fn Callback) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()
}

func (s *Session) takeCallback() Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb := s.callback
	s.callback = nil
	return cb
}

// trySend hands a completion signal to the render thread. Never
// blocks; a full channel drops the new signal.
func (s *Session) trySend(p Phase) {
	select {
	case s.signal <- p:
	default:
	}
}

// drain applies completion signals produced by readback goroutines
// since the last Tick.
func (s *Session) drain() {
	for {
		select {
		case p := <-s.signal:
			s.mu.Lock()
			if p == PhaseFinished && s.phase == PhaseResolving {
				s.phase = PhaseFinished
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// SaveAssetCallback returns a completion callback that writes the
// atlas to path as an impostor asset, appending the file extension
// when absent. The session's grid parameters are captured at call
// time.
func (s *Session) SaveAssetCallback(path string, pack, index bool) Callback {
	grid := uint32(s.GridSize)
	scale := s.Radius
	mode := s.Mode
	if !strings.HasSuffix(path, formats.Extension) {
		path += formats.Extension
	}

	return func(img *formats.Image, err error) {
		if err != nil {
			logger.Error("bake readback failed, asset not written",
				zap.String("path", path), zap.Error(err))
			return
		}
		imp, err := formats.NewImposter(img, grid, scale, mode, pack, index)
		if err != nil {
			logger.Error("building impostor asset", zap.String("path", path), zap.Error(err))
			return
		}
		if err := formats.WriteImposterFile(imp, path); err != nil {
			logger.Error("writing impostor asset", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("impostor asset written",
			zap.String("path", path),
			zap.Uint32("grid", grid),
			zap.Int("vram_bytes", imp.VRAMBytes()))
	}
}
