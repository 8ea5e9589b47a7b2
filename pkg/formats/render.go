package formats

import (
	"github.com/Faultbox/boimp/pkg/math"
	"github.com/Faultbox/boimp/pkg/oct"
)

// ImposterData flag bits. The low two bits hold the grid mode
// (oct.ModeMask); the rest carry per-asset render options.
const (
	VertexBillboardFlag   uint32 = 4
	UseSourceUVYFlag      uint32 = 8
	RenderMultisampleFlag uint32 = 16
)

// LoaderSettings are the render-time options chosen when an asset is
// loaded. They are not persisted in the container.
type LoaderSettings struct {
	// VertexBillboard orients the impostor quad toward the camera in
	// the vertex stage instead of following the source mesh.
	VertexBillboard bool
	// Multisample blends the nearest grid tiles at sample time.
	Multisample bool
	// UseSourceUVY keeps the source mesh's V coordinate instead of the
	// projected one.
	UseSourceUVY bool
	// Alpha multiplies the sampled coverage.
	Alpha float32
	// AlphaBlend selects blending above the threshold, masking below.
	AlphaBlend float32
}

// DefaultLoaderSettings returns the settings applied when a loader
// specifies nothing.
func DefaultLoaderSettings() LoaderSettings {
	return LoaderSettings{Alpha: 1, AlphaBlend: 0.5}
}

// ImposterData is the per-instance uniform record consumed by the
// impostor material at draw time.
type ImposterData struct {
	Center   math.Vec3
	Scale    float32
	GridSize uint32
	Flags    uint32
}

// NewImposterData combines asset metadata and loader settings into the
// draw-time record.
func NewImposterData(center math.Vec3, imp *Imposter, s LoaderSettings) ImposterData {
	flags := imp.Mode.Flags()
	if s.VertexBillboard {
		flags |= VertexBillboardFlag
	}
	if s.UseSourceUVY {
		flags |= UseSourceUVYFlag
	}
	if s.Multisample {
		flags |= RenderMultisampleFlag
	}
	return ImposterData{
		Center:   center,
		Scale:    imp.Scale,
		GridSize: imp.GridSize,
		Flags:    flags,
	}
}

// GridMode decodes the projection mode from the flags field.
func (d ImposterData) GridMode() oct.GridMode {
	return oct.ModeFromFlags(d.Flags)
}
