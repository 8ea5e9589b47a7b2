// boimptool is a CLI utility for inspecting impostor asset files.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/Faultbox/boimp/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "extract", "x":
		cmdExtract(args)
	case "preview":
		cmdPreview(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`boimptool - impostor asset utility

Usage:
  boimptool <command> [options]

Commands:
  info <file.boimp>                 Show asset metadata and storage stats
  extract <file.boimp> [out_dir]    Dump settings and the raw atlas texels
  preview [-scale N] <file.boimp> [out.png]
                                    Write a PNG of the atlas color channel

Examples:
  boimptool info tree.boimp
  boimptool preview -scale 4 tree.boimp tree.png`)
}

func load(path string) *formats.Imposter {
	imp, err := formats.ParseImposterFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return imp
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: boimptool info <file.boimp>")
		os.Exit(1)
	}

	imp := load(args[0])
	w, h := imp.AtlasSize()

	fmt.Printf("Asset:      %s\n", args[0])
	fmt.Printf("Grid:       %dx%d (%s)\n", imp.GridSize, imp.GridSize, imp.Mode)
	fmt.Printf("Scale:      %g\n", imp.Scale)
	fmt.Printf("Tile:       %d px, packed %dx%d at (%d,%d)\n",
		imp.BaseTileSize, imp.Packed.SizeX, imp.Packed.SizeY,
		imp.Packed.OffsetX, imp.Packed.OffsetY)
	fmt.Printf("Atlas:      %dx%d texels\n", w, h)
	if imp.Raw != nil {
		fmt.Println("Storage:    raw")
	} else {
		fmt.Printf("Storage:    indexed (%d palette entries, %d-bit indices)\n",
			imp.Palette.Width*imp.Palette.Height, imp.Indices.Bits)
	}
	fmt.Printf("VRAM:       %.2f KB\n", float64(imp.VRAMBytes())/1024)
}

func cmdExtract(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: boimptool extract <file.boimp> [out_dir]")
		os.Exit(1)
	}
	outDir := "."
	if len(args) > 1 {
		outDir = args[1]
	}

	imp := load(args[0])
	pix, err := imp.Pixels()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding pixels: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	settings := fmt.Sprintf("%d %g %s %d %d %d %d %d\n",
		imp.GridSize, imp.Scale, imp.Mode, imp.BaseTileSize,
		imp.Packed.OffsetX, imp.Packed.OffsetY, imp.Packed.SizeX, imp.Packed.SizeY)
	settingsPath := filepath.Join(outDir, "settings.txt")
	if err := os.WriteFile(settingsPath, []byte(settings), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing settings: %v\n", err)
		os.Exit(1)
	}

	atlasPath := filepath.Join(outDir, "atlas.rg32")
	if err := os.WriteFile(atlasPath, pix, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing atlas: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s, %s (%d bytes)\n", settingsPath, atlasPath, len(pix))
}

func cmdPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	scale := fs.Int("scale", 1, "Integer upscale factor for the preview")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: boimptool preview [-scale N] <file.boimp> [out.png]")
		os.Exit(1)
	}
	outPath := "preview.png"
	if fs.NArg() > 1 {
		outPath = fs.Arg(1)
	}
	if *scale < 1 {
		*scale = 1
	}

	imp := load(fs.Arg(0))
	pix, err := imp.Pixels()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding pixels: %v\n", err)
		os.Exit(1)
	}

	w, h := imp.AtlasSize()
	// The first packed word of each texel holds the RGBA8 color.
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		copy(img.Pix[i*4:], pix[i*formats.PixelSize:i*formats.PixelSize+4])
	}

	out := img
	if *scale > 1 {
		out = image.NewNRGBA(image.Rect(0, 0, w**scale, h**scale))
		draw.NearestNeighbor.Scale(out, out.Rect, img, img.Rect, draw.Src, nil)
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outPath, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding PNG: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Preview written: %s (%dx%d)\n", outPath, out.Rect.Dx(), out.Rect.Dy())
}
