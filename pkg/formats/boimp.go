// Package formats provides codecs for impostor asset files.
package formats

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/boimp/pkg/oct"
)

// BOIMP format errors.
var (
	ErrMissingSettings = errors.New("boimp: missing settings.txt entry")
	ErrBadSettings     = errors.New("boimp: malformed settings")
	ErrMissingTexture  = errors.New("boimp: missing texture entry")
	ErrBadPayload      = errors.New("boimp: malformed pixel payload")
	ErrEmptyImage      = errors.New("boimp: image has no used pixels")
	ErrIndexRange      = errors.New("boimp: palette index out of range")
	ErrBadDimensions   = errors.New("boimp: invalid image dimensions")
)

// PixelSize is the byte width of one atlas texel. Baked tiles store two
// packed uint32 channels per texel (RG32).
const PixelSize = 8

// Extension is the asset file extension, including the dot.
const Extension = ".boimp"

// Archive entry names.
const (
	settingsEntry = "settings.txt"
	textureEntry  = "texture.png"
	paletteEntry  = "pixels.png"
	indicesEntry  = "indices.png"
)

// Image is a CPU-resident RG32 texel buffer.
type Image struct {
	Width  int
	Height int
	Pix    []byte // PixelSize bytes per texel, row-major
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*PixelSize),
	}
}

// Texel returns the 8-byte slice backing texel (x, y).
func (img *Image) Texel(x, y int) []byte {
	off := (y*img.Width + x) * PixelSize
	return img.Pix[off : off+PixelSize]
}

func texelUsed(t []byte) bool {
	for _, b := range t {
		if b != 0 {
			return true
		}
	}
	return false
}

// PackedRect describes the per-tile sub-rectangle kept after packing.
// Offsets and sizes are in texels, relative to the tile origin.
type PackedRect struct {
	OffsetX uint32
	OffsetY uint32
	SizeX   uint32
	SizeY   uint32
}

// IndexImage holds palette indices for an indexed payload. Bits records
// the stored index width (16 or 32).
type IndexImage struct {
	Width  int
	Height int
	Bits   int
	Idx    []uint32
}

// Imposter is a parsed or to-be-written impostor asset. Exactly one of
// Raw or (Palette, Indices) is set, matching the two storage variants.
type Imposter struct {
	GridSize     uint32
	Scale        float32
	Mode         oct.GridMode
	BaseTileSize uint32
	Packed       PackedRect

	Raw     *Image
	Palette *Image
	Indices *IndexImage
}

// AtlasSize returns the stored atlas dimensions in texels.
func (imp *Imposter) AtlasSize() (width, height int) {
	return int(imp.Packed.SizeX * imp.GridSize), int(imp.Packed.SizeY * imp.GridSize)
}

// Pixels expands the stored payload into a full RG32 texel buffer for
// the packed atlas, resolving palette indices for the indexed variant.
func (imp *Imposter) Pixels() ([]byte, error) {
	if imp.Raw != nil {
		out := make([]byte, len(imp.Raw.Pix))
		copy(out, imp.Raw.Pix)
		return out, nil
	}

	paletteLen := uint32(imp.Palette.Width * imp.Palette.Height)
	out := make([]byte, len(imp.Indices.Idx)*PixelSize)
	for i, idx := range imp.Indices.Idx {
		if idx >= paletteLen {
			return nil, fmt.Errorf("%w: index %d, palette %d entries", ErrIndexRange, idx, paletteLen)
		}
		copy(out[i*PixelSize:], imp.Palette.Pix[int(idx)*PixelSize:int(idx)*PixelSize+PixelSize])
	}
	return out, nil
}

// VRAMBytes returns the GPU byte cost of the stored payload.
func (imp *Imposter) VRAMBytes() int {
	if imp.Raw != nil {
		return len(imp.Raw.Pix)
	}
	return len(imp.Palette.Pix) + len(imp.Indices.Idx)*imp.Indices.Bits/8
}

// PackImage crops every tile of an atlas to the tightest rectangle that
// covers the used texels of all tiles. A texel position counts as used
// when any tile has non-zero data there. Returns ErrEmptyImage when no
// texel anywhere is used.
func PackImage(img *Image, gridSize int) (*Image, PackedRect, error) {
	if gridSize < 1 || img.Width%gridSize != 0 || img.Height%gridSize != 0 {
		return nil, PackedRect{}, fmt.Errorf("%w: %dx%d atlas, grid %d", ErrBadDimensions, img.Width, img.Height, gridSize)
	}
	tileW := img.Width / gridSize
	tileH := img.Height / gridSize

	minX, minY := tileW, tileH
	maxX, maxY := -1, -1
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !texelUsed(img.Texel(x, y)) {
				continue
			}
			lx, ly := x%tileW, y%tileH
			if lx < minX {
				minX = lx
			}
			if ly < minY {
				minY = ly
			}
			if lx > maxX {
				maxX = lx
			}
			if ly > maxY {
				maxY = ly
			}
		}
	}
	if maxX < 0 {
		return nil, PackedRect{}, ErrEmptyImage
	}

	rect := PackedRect{
		OffsetX: uint32(minX),
		OffsetY: uint32(minY),
		SizeX:   uint32(maxX - minX + 1),
		SizeY:   uint32(maxY - minY + 1),
	}

	out := NewImage(int(rect.SizeX)*gridSize, int(rect.SizeY)*gridSize)
	for ty := 0; ty < gridSize; ty++ {
		for tx := 0; tx < gridSize; tx++ {
			for row := 0; row < int(rect.SizeY); row++ {
				srcX := tx*tileW + minX
				srcY := ty*tileH + minY + row
				dstX := tx * int(rect.SizeX)
				dstY := ty*int(rect.SizeY) + row
				src := img.Pix[(srcY*img.Width+srcX)*PixelSize:]
				dst := out.Pix[(dstY*out.Width+dstX)*PixelSize:]
				copy(dst[:int(rect.SizeX)*PixelSize], src[:int(rect.SizeX)*PixelSize])
			}
		}
	}
	return out, rect, nil
}

// buildIndex deduplicates the image's texels into a palette, in first
// appearance order, and records one palette index per texel.
func buildIndex(img *Image) (*Image, []uint32) {
	seen := make(map[[PixelSize]byte]uint32)
	var palette []byte
	idx := make([]uint32, img.Width*img.Height)

	var key [PixelSize]byte
	for i := range idx {
		copy(key[:], img.Pix[i*PixelSize:])
		n, ok := seen[key]
		if !ok {
			n = uint32(len(seen))
			seen[key] = n
			palette = append(palette, key[:]...)
		}
		idx[i] = n
	}

	pal := &Image{
		Width:  len(palette) / PixelSize,
		Height: 1,
		Pix:    palette,
	}
	return pal, idx
}

// NewImposter builds an asset from a baked atlas. When pack is set the
// tiles are cropped to their shared used rectangle; when index is set a
// palette payload is stored instead of raw texels if and only if it is
// actually smaller.
func NewImposter(img *Image, gridSize uint32, scale float32, mode oct.GridMode, pack, index bool) (*Imposter, error) {
	if gridSize < 1 || img.Width != img.Height || img.Width%int(gridSize) != 0 {
		return nil, fmt.Errorf("%w: %dx%d atlas, grid %d", ErrBadDimensions, img.Width, img.Height, gridSize)
	}
	baseTile := uint32(img.Width) / gridSize

	imp := &Imposter{
		GridSize:     gridSize,
		Scale:        scale,
		Mode:         mode,
		BaseTileSize: baseTile,
		Packed:       PackedRect{SizeX: baseTile, SizeY: baseTile},
		Raw:          img,
	}

	if pack {
		packed, rect, err := PackImage(img, int(gridSize))
		if err != nil {
			return nil, err
		}
		imp.Packed = rect
		imp.Raw = packed
	}

	if index {
		pal, idx := buildIndex(imp.Raw)
		texels := len(idx)
		indexBits := 16
		if len(pal.Pix)/PixelSize > 1<<16 {
			indexBits = 32
		}
		if len(pal.Pix)+texels*indexBits/8 < texels*PixelSize {
			imp.Palette = pal
			imp.Indices = &IndexImage{
				Width:  imp.Raw.Width,
				Height: imp.Raw.Height,
				Bits:   indexBits,
				Idx:    idx,
			}
			imp.Raw = nil
		}
	}

	return imp, nil
}

// settingsLine renders the plain-text metadata record.
func (imp *Imposter) settingsLine() string {
	return fmt.Sprintf("%d %s %s %d %d %d %d %d",
		imp.GridSize,
		strconv.FormatFloat(float64(imp.Scale), 'g', -1, 32),
		imp.Mode,
		imp.BaseTileSize,
		imp.Packed.OffsetX, imp.Packed.OffsetY,
		imp.Packed.SizeX, imp.Packed.SizeY)
}

func parseSettings(data []byte) (*Imposter, error) {
	fields := strings.Fields(string(data))
	if len(fields) != 8 {
		return nil, fmt.Errorf("%w: expected 8 fields, got %d", ErrBadSettings, len(fields))
	}

	u32 := func(s, name string) (uint32, error) {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrBadSettings, name, s)
		}
		return uint32(v), nil
	}

	imp := &Imposter{}
	var err error
	if imp.GridSize, err = u32(fields[0], "grid size"); err != nil {
		return nil, err
	}
	scale, err := strconv.ParseFloat(fields[1], 32)
	if err != nil {
		return nil, fmt.Errorf("%w: scale %q", ErrBadSettings, fields[1])
	}
	imp.Scale = float32(scale)
	if imp.Mode, err = oct.ParseGridMode(fields[2]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSettings, err)
	}
	if imp.BaseTileSize, err = u32(fields[3], "tile size"); err != nil {
		return nil, err
	}
	if imp.Packed.OffsetX, err = u32(fields[4], "packed offset x"); err != nil {
		return nil, err
	}
	if imp.Packed.OffsetY, err = u32(fields[5], "packed offset y"); err != nil {
		return nil, err
	}
	if imp.Packed.SizeX, err = u32(fields[6], "packed size x"); err != nil {
		return nil, err
	}
	if imp.Packed.SizeY, err = u32(fields[7], "packed size y"); err != nil {
		return nil, err
	}

	if imp.GridSize < 1 || imp.Packed.SizeX < 1 || imp.Packed.SizeY < 1 ||
		imp.Packed.SizeX+imp.Packed.OffsetX > imp.BaseTileSize ||
		imp.Packed.SizeY+imp.Packed.OffsetY > imp.BaseTileSize {
		return nil, fmt.Errorf("%w: packed rect exceeds tile", ErrBadSettings)
	}
	return imp, nil
}

// encodeTexelPNG wraps raw RG32 texels in an RGBA8 PNG. Each 8-byte
// texel maps to two RGBA8 pixels, so the PNG is twice the texel width.
// The wrapping is byte-exact both ways.
func encodeTexelPNG(w io.Writer, img *Image) error {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width*2, img.Height))
	copy(out.Pix, img.Pix)
	return png.Encode(w, out)
}

func decodeTexelPNG(data []byte) (*Image, error) {
	m, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var pix []byte
	var stride, w, h int
	switch src := m.(type) {
	case *image.NRGBA:
		pix, stride = src.Pix, src.Stride
		w, h = src.Rect.Dx(), src.Rect.Dy()
	case *image.RGBA:
		// The encoder drops the alpha channel for fully opaque images;
		// with alpha 255 the premultiplied bytes are unchanged.
		pix, stride = src.Pix, src.Stride
		w, h = src.Rect.Dx(), src.Rect.Dy()
	default:
		return nil, fmt.Errorf("%w: unexpected PNG color model", ErrBadPayload)
	}
	if w%2 != 0 {
		return nil, fmt.Errorf("%w: odd PNG width %d", ErrBadPayload, w)
	}

	img := NewImage(w/2, h)
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Width*PixelSize:], pix[y*stride:y*stride+w*4])
	}
	return img, nil
}

// encodeIndexPNG stores palette indices as a 16-bit grayscale PNG when
// they fit, otherwise as big-endian uint32 in RGBA8.
func encodeIndexPNG(w io.Writer, idx *IndexImage) error {
	if idx.Bits == 16 {
		out := image.NewGray16(image.Rect(0, 0, idx.Width, idx.Height))
		for i, v := range idx.Idx {
			binary.BigEndian.PutUint16(out.Pix[i*2:], uint16(v))
		}
		return png.Encode(w, out)
	}
	out := image.NewNRGBA(image.Rect(0, 0, idx.Width, idx.Height))
	for i, v := range idx.Idx {
		binary.BigEndian.PutUint32(out.Pix[i*4:], v)
	}
	return png.Encode(w, out)
}

func decodeIndexPNG(data []byte) (*IndexImage, error) {
	m, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	switch src := m.(type) {
	case *image.Gray16:
		w, h := src.Rect.Dx(), src.Rect.Dy()
		out := &IndexImage{Width: w, Height: h, Bits: 16, Idx: make([]uint32, w*h)}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Idx[y*w+x] = uint32(binary.BigEndian.Uint16(src.Pix[y*src.Stride+x*2:]))
			}
		}
		return out, nil
	case *image.NRGBA:
		return decodeIndex32(src.Pix, src.Stride, src.Rect.Dx(), src.Rect.Dy()), nil
	case *image.RGBA:
		return decodeIndex32(src.Pix, src.Stride, src.Rect.Dx(), src.Rect.Dy()), nil
	default:
		return nil, fmt.Errorf("%w: unexpected index PNG color model", ErrBadPayload)
	}
}

func decodeIndex32(pix []byte, stride, w, h int) *IndexImage {
	out := &IndexImage{Width: w, Height: h, Bits: 32, Idx: make([]uint32, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Idx[y*w+x] = binary.BigEndian.Uint32(pix[y*stride+x*4:])
		}
	}
	return out
}

// WriteImposter serializes the asset into an in-memory .boimp archive.
// Entries are stored uncompressed since PNG already compresses the
// pixel data.
func WriteImposter(imp *Imposter) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	store := func(name string) (io.Writer, error) {
		return zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	}

	w, err := store(settingsEntry)
	if err != nil {
		return nil, fmt.Errorf("writing settings: %w", err)
	}
	if _, err := io.WriteString(w, imp.settingsLine()); err != nil {
		return nil, fmt.Errorf("writing settings: %w", err)
	}

	if imp.Raw != nil {
		if w, err = store(textureEntry); err == nil {
			err = encodeTexelPNG(w, imp.Raw)
		}
		if err != nil {
			return nil, fmt.Errorf("writing texture: %w", err)
		}
	} else {
		if w, err = store(paletteEntry); err == nil {
			err = encodeTexelPNG(w, imp.Palette)
		}
		if err != nil {
			return nil, fmt.Errorf("writing palette: %w", err)
		}
		if w, err = store(indicesEntry); err == nil {
			err = encodeIndexPNG(w, imp.Indices)
		}
		if err != nil {
			return nil, fmt.Errorf("writing indices: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteImposterFile serializes the asset to disk.
func WriteImposterFile(imp *Imposter, path string) error {
	data, err := WriteImposter(imp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ParseImposter parses a .boimp archive from raw bytes. The storage
// variant is detected by which entries are present.
func ParseImposter(data []byte) (*Imposter, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrBadPayload, f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrBadPayload, f.Name, err)
		}
		entries[f.Name] = body
	}

	settings, ok := entries[settingsEntry]
	if !ok {
		return nil, ErrMissingSettings
	}
	imp, err := parseSettings(settings)
	if err != nil {
		return nil, err
	}

	atlasW, atlasH := imp.AtlasSize()
	if raw, ok := entries[textureEntry]; ok {
		img, err := decodeTexelPNG(raw)
		if err != nil {
			return nil, err
		}
		if img.Width != atlasW || img.Height != atlasH {
			return nil, fmt.Errorf("%w: texture is %dx%d, settings say %dx%d",
				ErrBadPayload, img.Width, img.Height, atlasW, atlasH)
		}
		imp.Raw = img
		return imp, nil
	}

	pal, ok := entries[paletteEntry]
	if !ok {
		return nil, ErrMissingTexture
	}
	idxData, ok := entries[indicesEntry]
	if !ok {
		return nil, ErrMissingTexture
	}

	if imp.Palette, err = decodeTexelPNG(pal); err != nil {
		return nil, err
	}
	if imp.Indices, err = decodeIndexPNG(idxData); err != nil {
		return nil, err
	}
	if imp.Indices.Width != atlasW || imp.Indices.Height != atlasH {
		return nil, fmt.Errorf("%w: index image is %dx%d, settings say %dx%d",
			ErrBadPayload, imp.Indices.Width, imp.Indices.Height, atlasW, atlasH)
	}
	return imp, nil
}

// ParseImposterFile parses a .boimp file from disk.
func ParseImposterFile(path string) (*Imposter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boimp file: %w", err)
	}
	return ParseImposter(data)
}
