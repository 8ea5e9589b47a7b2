// boimpview displays the color channel of a baked impostor atlas in
// an SDL2 window.
package main

import (
	"fmt"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/boimp/internal/engine/shader"
	"github.com/Faultbox/boimp/internal/engine/window"
	"github.com/Faultbox/boimp/internal/logger"
	"github.com/Faultbox/boimp/pkg/formats"
)

const vertexSrc = `
#version 410 core
out vec2 uv;
void main() {
	vec2 pos = vec2(float((gl_VertexID & 1) << 2) - 1.0,
	                float((gl_VertexID & 2) << 1) - 1.0);
	uv = pos * 0.5 + 0.5;
	uv.y = 1.0 - uv.y;
	gl_Position = vec4(pos, 0.0, 1.0);
}
`

const fragmentSrc = `
#version 410 core
uniform sampler2D atlas;
in vec2 uv;
out vec4 frag;
void main() {
	frag = vec4(texture(atlas, uv).rgb, 1.0);
}
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: boimpview <file.boimp>")
		os.Exit(1)
	}
	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	imp, err := formats.ParseImposterFile(os.Args[1])
	if err != nil {
		logger.Fatal("loading asset", zap.String("path", os.Args[1]), zap.Error(err))
	}
	pix, err := imp.Pixels()
	if err != nil {
		logger.Fatal("expanding asset pixels", zap.Error(err))
	}

	w, h := imp.AtlasSize()
	logger.Info("asset loaded",
		zap.String("path", os.Args[1]),
		zap.Uint32("grid", imp.GridSize),
		zap.String("mode", imp.Mode.String()),
		zap.Int("atlas_w", w),
		zap.Int("atlas_h", h))

	win, err := window.New(window.Config{
		Title:  fmt.Sprintf("boimpview - %s", os.Args[1]),
		Width:  768,
		Height: 768,
		VSync:  true,
	})
	if err != nil {
		logger.Fatal("creating window", zap.Error(err))
	}
	defer win.Close()

	prog, err := shader.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		logger.Fatal("compiling viewer shader", zap.Error(err))
	}
	defer gl.DeleteProgram(prog)

	// The first packed word of each texel is the RGBA8 color.
	rgba := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		copy(rgba[i*4:], pix[i*formats.PixelSize:i*formats.PixelSize+4])
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	defer gl.DeleteTextures(1, &tex)

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	defer gl.DeleteVertexArrays(1, &vao)

	locAtlas := shader.GetUniform(prog, "atlas")

	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
					return
				}
			}
		}

		ww, wh := win.GetSize()
		gl.Viewport(0, 0, int32(ww), int32(wh))
		gl.ClearColor(0.08, 0.08, 0.1, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		gl.UseProgram(prog)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.Uniform1i(locAtlas, 0)
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
		gl.BindVertexArray(0)

		win.SwapBuffers()
	}
}
