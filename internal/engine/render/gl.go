package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/boimp/internal/engine/bake"
	"github.com/Faultbox/boimp/internal/engine/framebuffer"
	"github.com/Faultbox/boimp/internal/engine/scene"
	"github.com/Faultbox/boimp/internal/engine/shader"
	"github.com/Faultbox/boimp/pkg/formats"
	"github.com/Faultbox/boimp/pkg/math"
)

// DrawSceneFunc issues the host's draws for one tile with the given
// camera, into the currently bound render target, and returns the
// number of draws that executed. Materials must write packed RG32
// fragment output.
type DrawSceneFunc func(view, proj math.Mat4) int

// The resolve pass averages a block of intermediate texels into one
// atlas texel, per byte lane, since packed integer channels cannot be
// blended or filtered by fixed function hardware.
const resolveVertexSrc = `
#version 410 core
void main() {
	vec2 pos = vec2(float((gl_VertexID & 1) << 2) - 1.0,
	                float((gl_VertexID & 2) << 1) - 1.0);
	gl_Position = vec4(pos, 0.0, 1.0);
}
`

const resolveFragmentSrc = `
#version 410 core
uniform usampler2D src;
uniform int samples;
uniform ivec2 dstOrigin;
out uvec2 frag;

void main() {
	ivec2 local = ivec2(gl_FragCoord.xy) - dstOrigin;
	ivec2 base = local * samples;
	uint sums[8];
	for (int k = 0; k < 8; k++) sums[k] = 0u;
	for (int sy = 0; sy < samples; sy++) {
		for (int sx = 0; sx < samples; sx++) {
			uvec2 t = texelFetch(src, base + ivec2(sx, sy), 0).rg;
			for (int k = 0; k < 4; k++) {
				sums[k] += (t.x >> uint(8 * k)) & 0xFFu;
				sums[4 + k] += (t.y >> uint(8 * k)) & 0xFFu;
			}
		}
	}
	uint block = uint(samples * samples);
	uvec2 o = uvec2(0u, 0u);
	for (int k = 0; k < 4; k++) {
		o.x |= (sums[k] / block) << uint(8 * k);
		o.y |= (sums[4 + k] / block) << uint(8 * k);
	}
	frag = o;
}
`

// GL is the OpenGL bake backend. Scene rendering is delegated to a
// host-supplied draw function; the backend owns the RG32UI targets,
// the resolve pass and the readback. All methods must run on the
// thread holding the GL context.
type GL struct {
	draw DrawSceneFunc

	atlas  *framebuffer.Framebuffer
	inter  *framebuffer.Framebuffer
	target *framebuffer.Framebuffer

	resolveProg uint32
	resolveVAO  uint32
	locSamples  int32
	locOrigin   int32
	locSrc      int32

	atlasSize int
}

// NewGL returns a GL backend rendering through draw.
func NewGL(draw DrawSceneFunc) *GL {
	return &GL{draw: draw}
}

// SetTarget registers a persistent framebuffer that receives a copy
// of the atlas on every completion. It must match the atlas size.
func (b *GL) SetTarget(fb *framebuffer.Framebuffer) {
	b.target = fb
}

// AtlasTexture returns the atlas color texture for live display.
func (b *GL) AtlasTexture() uint32 {
	if b.atlas == nil {
		return 0
	}
	return b.atlas.ColorTexture()
}

// Prepare allocates the atlas and intermediate targets and builds the
// resolve program on first use.
func (b *GL) Prepare(atlasSize, intermediateSize int) error {
	if b.atlas != nil {
		b.atlas.Destroy()
	}
	if b.inter != nil {
		b.inter.Destroy()
	}

	var err error
	if b.atlas, err = framebuffer.New(int32(atlasSize), int32(atlasSize)); err != nil {
		return fmt.Errorf("atlas target: %w", err)
	}
	if b.inter, err = framebuffer.New(int32(intermediateSize), int32(intermediateSize)); err != nil {
		return fmt.Errorf("intermediate target: %w", err)
	}
	b.atlasSize = atlasSize

	b.atlas.Bind()
	b.atlas.Clear()
	b.atlas.Unbind()

	if b.resolveProg == 0 {
		if b.resolveProg, err = shader.CompileProgram(resolveVertexSrc, resolveFragmentSrc); err != nil {
			return fmt.Errorf("resolve program: %w", err)
		}
		b.locSrc = shader.GetUniform(b.resolveProg, "src")
		b.locSamples = shader.GetUniform(b.resolveProg, "samples")
		b.locOrigin = shader.GetUniform(b.resolveProg, "dstOrigin")
		gl.GenVertexArrays(1, &b.resolveVAO)
	}
	return nil
}

// flipY converts a top-down atlas rectangle into GL's bottom-up
// coordinates, so readback rows can be flipped into the same layout
// the software backend produces.
func (b *GL) flipY(vp bake.Rect, targetH int) bake.Rect {
	vp.Y = targetH - vp.Y - vp.H
	return vp
}

// RenderTile binds the requested target and viewport and delegates
// the draws to the host. The object list is ignored; the host's draw
// function owns culling and per-object state.
func (b *GL) RenderTile(view, proj math.Mat4, vp bake.Rect, intermediate, clear bool, objs []*scene.Object) int {
	fb := b.atlas
	if intermediate {
		fb = b.inter
	}
	_, h := fb.Size()
	g := b.flipY(vp, int(h))
	fb.BindViewport(int32(g.X), int32(g.Y), int32(g.W), int32(g.H))
	if clear {
		fb.Clear()
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	draws := b.draw(view, proj)
	fb.Unbind()
	return draws
}

// Resolve runs the averaging pass from the intermediate target into
// the atlas rectangle.
func (b *GL) Resolve(dst bake.Rect, samples int) {
	g := b.flipY(dst, b.atlasSize)
	b.atlas.BindViewport(int32(g.X), int32(g.Y), int32(g.W), int32(g.H))
	gl.Disable(gl.DEPTH_TEST)

	gl.UseProgram(b.resolveProg)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, b.inter.ColorTexture())
	gl.Uniform1i(b.locSrc, 0)
	gl.Uniform1i(b.locSamples, int32(samples))
	gl.Uniform2i(b.locOrigin, int32(g.X), int32(g.Y))

	gl.BindVertexArray(b.resolveVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	b.atlas.Unbind()
}

// CopyToTarget blits the atlas into the registered target.
func (b *GL) CopyToTarget() {
	if b.target == nil {
		return
	}
	b.atlas.BlitTo(b.target)
}

// Readback copies the atlas to the CPU on the GL thread, then hands
// the buffer to fn on a fresh goroutine. Rows are flipped to top-down
// order and tightly packed.
func (b *GL) Readback(fn bake.ReadbackFunc) {
	raw := b.atlas.ReadPixels()
	rowBytes := b.atlasSize * formats.PixelSize
	buf := make([]byte, len(raw))
	for y := 0; y < b.atlasSize; y++ {
		src := raw[(b.atlasSize-1-y)*rowBytes : (b.atlasSize-y)*rowBytes]
		copy(buf[y*rowBytes:], src)
	}
	go fn(buf, rowBytes, nil)
}

// Destroy releases the backend's GL resources.
func (b *GL) Destroy() {
	if b.atlas != nil {
		b.atlas.Destroy()
		b.atlas = nil
	}
	if b.inter != nil {
		b.inter.Destroy()
		b.inter = nil
	}
	if b.resolveProg != 0 {
		gl.DeleteProgram(b.resolveProg)
		b.resolveProg = 0
	}
	if b.resolveVAO != 0 {
		gl.DeleteVertexArrays(1, &b.resolveVAO)
		b.resolveVAO = 0
	}
}
