// Package render provides bake backends: a CPU rasterizer for
// headless baking and tests, and an OpenGL path for GPU scenes.
package render

import (
	"encoding/binary"

	"github.com/Faultbox/boimp/internal/engine/bake"
	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/pkg/formats"
	"github.com/Faultbox/boimp/pkg/math"
)

// readbackAlign pads readback rows the way GPU buffer copies do, so
// the orchestrator's padding strip is exercised on every backend.
const readbackAlign = 256

// Soft is a CPU orthographic rasterizer backend. Each drawable object
// fills its triangles with the material's packed RG32 value under a
// per-target depth test.
type Soft struct {
	atlasSize int
	interSize int

	atlas      []byte
	inter      []byte
	atlasDepth []float32
	interDepth []float32

	target *formats.Image
}

// NewSoft returns an unprepared software backend.
func NewSoft() *Soft {
	return &Soft{}
}

// SetTarget registers a persistent image that receives a copy of the
// atlas on every bake completion.
func (b *Soft) SetTarget(img *formats.Image) {
	b.target = img
}

// Atlas exposes the current atlas contents.
func (b *Soft) Atlas() *formats.Image {
	img := formats.NewImage(b.atlasSize, b.atlasSize)
	copy(img.Pix, b.atlas)
	return img
}

// Prepare allocates zeroed atlas and intermediate buffers.
func (b *Soft) Prepare(atlasSize, intermediateSize int) error {
	b.atlasSize = atlasSize
	b.interSize = intermediateSize
	b.atlas = make([]byte, atlasSize*atlasSize*formats.PixelSize)
	b.inter = make([]byte, intermediateSize*intermediateSize*formats.PixelSize)
	b.atlasDepth = newDepth(atlasSize * atlasSize)
	b.interDepth = newDepth(intermediateSize * intermediateSize)
	return nil
}

func newDepth(n int) []float32 {
	d := make([]float32, n)
	for i := range d {
		d[i] = 1 // far plane in NDC
	}
	return d
}

// RenderTile rasterizes the drawable objects into the viewport and
// returns the number of draws that executed. Objects whose resources
// are not resident are skipped without counting, which is what the
// orchestrator's readiness gate detects.
func (b *Soft) RenderTile(view, proj math.Mat4, vp bake.Rect, intermediate, clear bool, objs []*scene.Object) int {
	buf, depth, size := b.atlas, b.atlasDepth, b.atlasSize
	if intermediate {
		buf, depth, size = b.inter, b.interDepth, b.interSize
	}
	if clear {
		for i := range buf {
			buf[i] = 0
		}
		for i := range depth {
			depth[i] = 1
		}
	}

	vpMat := proj.Mul(view)
	draws := 0
	for _, o := range objs {
		if !o.Drawable() {
			continue
		}
		mvp := vpMat.Mul(o.Transform.Matrix())
		var texel [formats.PixelSize]byte
		binary.LittleEndian.PutUint32(texel[:4], o.Material.ChannelR)
		binary.LittleEndian.PutUint32(texel[4:], o.Material.ChannelG)
		drawMesh(buf, depth, size, vp, mvp, o.Mesh, texel)
		draws++
	}
	return draws
}

// drawMesh rasterizes one triangle list with an inclusive-edge
// barycentric test and a less-than depth test.
func drawMesh(buf []byte, depth []float32, size int, vp bake.Rect, mvp math.Mat4, m *scene.Mesh, texel [formats.PixelSize]byte) {
	screen := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		ndc := mvp.TransformVec3(v)
		screen[i] = math.Vec3{
			X: float32(vp.X) + (ndc.X+1)*0.5*float32(vp.W),
			Y: float32(vp.Y) + (1-ndc.Y)*0.5*float32(vp.H),
			Z: ndc.Z,
		}
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		a := screen[m.Indices[t]]
		c1 := screen[m.Indices[t+1]]
		c2 := screen[m.Indices[t+2]]
		rasterTriangle(buf, depth, size, vp, a, c1, c2, texel)
	}
}

func rasterTriangle(buf []byte, depth []float32, size int, vp bake.Rect, a, b, c math.Vec3, texel [formats.PixelSize]byte) {
	e0 := math.Vec2{X: b.X - a.X, Y: b.Y - a.Y}
	e1 := math.Vec2{X: c.X - a.X, Y: c.Y - a.Y}
	area := e0.Cross(e1)
	if area == 0 {
		return
	}
	if area < 0 {
		// Rasterize both windings
		b, c = c, b
		area = -area
	}

	minX := clampInt(int(minf(a.X, b.X, c.X)), vp.X, vp.X+vp.W-1)
	maxX := clampInt(int(maxf(a.X, b.X, c.X)), vp.X, vp.X+vp.W-1)
	minY := clampInt(int(minf(a.Y, b.Y, c.Y)), vp.Y, vp.Y+vp.H-1)
	maxY := clampInt(int(maxf(a.Y, b.Y, c.Y)), vp.Y, vp.Y+vp.H-1)

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			p := math.Vec2{X: float32(px) + 0.5, Y: float32(py) + 0.5}
			w0 := edge(b, c, p)
			w1 := edge(c, a, p)
			w2 := edge(a, b, p)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := (w0*a.Z + w1*b.Z + w2*c.Z) / area
			if z < -1 || z > 1 {
				continue
			}
			i := py*size + px
			if z >= depth[i] {
				continue
			}
			depth[i] = z
			copy(buf[i*formats.PixelSize:], texel[:])
		}
	}
}

func edge(a, b math.Vec3, p math.Vec2) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// Resolve box-filters the intermediate origin region into the atlas
// rectangle, averaging each byte lane over the samples squared block.
func (b *Soft) Resolve(dst bake.Rect, samples int) {
	block := samples * samples
	for dy := 0; dy < dst.H; dy++ {
		for dx := 0; dx < dst.W; dx++ {
			var sum [formats.PixelSize]uint32
			for sy := 0; sy < samples; sy++ {
				for sx := 0; sx < samples; sx++ {
					si := ((dy*samples+sy)*b.interSize + dx*samples + sx) * formats.PixelSize
					for k := 0; k < formats.PixelSize; k++ {
						sum[k] += uint32(b.inter[si+k])
					}
				}
			}
			di := ((dst.Y+dy)*b.atlasSize + dst.X + dx) * formats.PixelSize
			for k := 0; k < formats.PixelSize; k++ {
				b.atlas[di+k] = byte(sum[k] / uint32(block))
			}
		}
	}
}

// CopyToTarget copies the atlas into the registered target image.
func (b *Soft) CopyToTarget() {
	if b.target == nil {
		return
	}
	b.target.Width = b.atlasSize
	b.target.Height = b.atlasSize
	if len(b.target.Pix) != len(b.atlas) {
		b.target.Pix = make([]byte, len(b.atlas))
	}
	copy(b.target.Pix, b.atlas)
}

// Readback snapshots the atlas with GPU-style row padding and hands
// it to fn on a separate goroutine.
func (b *Soft) Readback(fn bake.ReadbackFunc) {
	rowBytes := b.atlasSize * formats.PixelSize
	padded := (rowBytes + readbackAlign - 1) &^ (readbackAlign - 1)
	buf := make([]byte, padded*b.atlasSize)
	for y := 0; y < b.atlasSize; y++ {
		copy(buf[y*padded:], b.atlas[y*rowBytes:(y+1)*rowBytes])
	}
	go fn(buf, padded, nil)
}

func minf(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxf(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
