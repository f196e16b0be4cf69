// Package texture bakes height and biome colour buffers into images.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"ringforge/internal/biome"
	"ringforge/internal/heightmap"
	"ringforge/internal/profiling"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ErrBufferSize is returned when a colour buffer does not cover the image.
var ErrBufferSize = errors.New("texture: colour buffer does not match image size")

// FromColorMap packs a row-major colour buffer into a w x h image.
func FromColorMap(w, h int, colors []color.NRGBA) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 || len(colors) != w*h {
		return nil, fmt.Errorf("%w: %dx%d with %d colours", ErrBufferSize, w, h, len(colors))
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, colors[x+y*w])
		}
	}
	return img, nil
}

// FromHeightMap renders the field as greyscale, black at 0 and white at 1.
// Values outside [0,1] saturate.
func FromHeightMap(f *heightmap.Field) *image.NRGBA {
	defer profiling.Track("texture.FromHeightMap")()
	img := image.NewNRGBA(image.Rect(0, 0, f.Width(), f.Height()))
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			v := uint8(clamp01(f.At(x, y))*255 + 0.5)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// FromBiomes classifies every cell and bakes the resulting tint.
func FromBiomes(f *heightmap.Field, set *biome.Set) (*image.NRGBA, error) {
	defer profiling.Track("texture.FromBiomes")()
	colors, err := set.ColorMap(f)
	if err != nil {
		return nil, err
	}
	return FromColorMap(f.Width(), f.Height(), colors)
}

// Blended bakes a preview of the smoothed biome colouring: each biome's tint
// fades in over a band of its BlendStrength centred on its start height, on
// top of the biomes below it. The height is first remapped from
// [heightMin,heightMax] to [0,1].
func Blended(f *heightmap.Field, set *biome.Set, heightMin, heightMax float64) *image.NRGBA {
	defer profiling.Track("texture.Blended")()
	const eps = 1e-4
	biomes := set.Biomes()
	img := image.NewNRGBA(image.Rect(0, 0, f.Width(), f.Height()))
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			h := inverseLerp(heightMin, heightMax, f.At(x, y))
			var r, g, b float64
			for _, bm := range biomes {
				half := bm.BlendStrength / 2
				strength := inverseLerp(-half-eps, half, h-bm.StartHeight)
				tr, tg, tb := tinted(bm)
				r = r*(1-strength) + tr*strength
				g = g*(1-strength) + tg*strength
				b = b*(1-strength) + tb*strength
			}
			img.SetNRGBA(x, y, color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: 255})
		}
	}
	return img
}

// Scale resizes img to w x h with nearest-neighbour sampling, matching
// the point filtering used for baked chunk textures.
func Scale(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Encode writes img in the format named by ext (".png", ".bmp", ".tif" or
// ".tiff"). An empty extension means PNG.
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case "", ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("texture: unsupported image format %q", ext)
	}
}

// EncodeFile is Encode with the format taken from the file name.
func EncodeFile(w io.Writer, img image.Image, name string) error {
	return Encode(w, img, filepath.Ext(name))
}

func tinted(b biome.Biome) (r, g, bl float64) {
	// TintStrength 0 yields white.
	s := b.TintStrength
	return lerp(1, float64(b.Tint.R)/255, s), lerp(1, float64(b.Tint.G)/255, s), lerp(1, float64(b.Tint.B)/255, s)
}

func inverseLerp(a, b, v float64) float64 {
	if a == b {
		if v >= b {
			return 1
		}
		return 0
	}
	return clamp01((v - a) / (b - a))
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 { return uint8(clamp01(v)*255 + 0.5) }
