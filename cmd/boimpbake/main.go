// boimpbake bakes a small procedural scene into an impostor asset
// using the software rasterizer, with no GPU or window required.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/boimp/internal/config"
	"github.com/Faultbox/boimp/internal/engine/bake"
	"github.com/Faultbox/boimp/internal/engine/render"
	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/internal/logger"
	"github.com/Faultbox/boimp/pkg/math"
	"github.com/Faultbox/boimp/pkg/oct"
)

func main() {
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	mode, err := oct.ParseGridMode(cfg.Bake.Mode)
	if err != nil {
		logger.Fatal("invalid grid mode", zap.String("mode", cfg.Bake.Mode), zap.Error(err))
	}

	backend := render.NewSoft()
	s := bake.NewSession(backend)
	s.Radius = cfg.Bake.Radius
	s.GridSize = cfg.Bake.GridSize
	s.TileSize = cfg.Bake.TileSize
	s.Mode = mode
	s.Multisample = cfg.Bake.Multisample
	s.MaxTilesPerFrame = cfg.Bake.MaxTilesFrame
	s.WaitForRender = cfg.Bake.WaitForRender
	s.SetCallback(s.SaveAssetCallback(cfg.Output.Path, cfg.Output.Pack, cfg.Output.Index))

	sc := demoScene()
	logger.Info("baking",
		zap.Int("grid", s.GridSize),
		zap.Int("tile", s.TileSize),
		zap.String("mode", mode.String()),
		zap.Int("multisample", s.Multisample),
		zap.String("output", cfg.Output.Path))

	deadline := time.Now().Add(30 * time.Second)
	for s.Phase() != bake.PhaseFinished {
		if err := s.Tick(sc); err != nil {
			logger.Fatal("bake failed", zap.Error(err))
		}
		if time.Now().After(deadline) {
			logger.Fatal("bake timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

// demoScene builds two crossed quads, the classic foliage billboard
// arrangement, inside the unit capture sphere.
func demoScene() *scene.Scene {
	sc := &scene.Scene{}

	quadXY := scene.NewQuad(math.Vec3{X: 1.2}, math.Vec3{Y: 1.2})
	quadXY.Ready = true
	sc.Add(&scene.Object{
		Mesh:      quadXY,
		Material:  &scene.Material{ChannelR: 0xFF2E8B2E, ChannelG: 0x0000FF00, Ready: true},
		Transform: math.TransformIdentity(),
	})

	quadZY := scene.NewQuad(math.Vec3{Z: 1.2}, math.Vec3{Y: 1.2})
	quadZY.Ready = true
	sc.Add(&scene.Object{
		Mesh:      quadZY,
		Material:  &scene.Material{ChannelR: 0xFF228B22, ChannelG: 0x00FF0000, Ready: true},
		Transform: math.TransformIdentity(),
	})

	return sc
}
