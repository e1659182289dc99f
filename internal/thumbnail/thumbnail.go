// Package thumbnail re-encodes an EPUB cover image for display, downsizing
// it when it is wider than a configured bound.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth    = 600
	DefaultJPEGQuality = 85
	DefaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// ErrTooLarge is returned when the declared dimensions exceed MaxPixels.
// The image is rejected before its pixels are decoded.
var ErrTooLarge = errors.New("thumbnail: image too large to decode")

// Options bounds the rendered image. Zero values select the defaults; a
// negative MaxWidth disables resizing.
type Options struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int
}

func (o Options) withDefaults() Options {
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	if o.JPEGQuality > 100 {
		o.JPEGQuality = 100
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	return o
}

// Image is a rendered cover.
type Image struct {
	Data   []byte
	Width  int
	Height int
	Format imaging.Format

	// Passthrough is set when Data is the input unchanged (animated GIF).
	Passthrough bool
}

// Extension returns the file extension matching Format, dot included.
func (i Image) Extension() string {
	switch i.Format {
	case imaging.PNG:
		return ".png"
	case imaging.GIF:
		return ".gif"
	default:
		return ".jpg"
	}
}

// Render decodes data and re-encodes it as JPEG, or as PNG when the source
// is a PNG carrying transparency. Animated GIFs are returned as-is.
func Render(data []byte, mediaType string, opts Options) (Image, error) {
	opts = opts.withDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("thumbnail: decode config: %w", err)
	}
	if pixels := uint64(cfg.Width) * uint64(cfg.Height); pixels > uint64(opts.MaxPixels) {
		return Image{}, fmt.Errorf("%w: %dx%d (%d pixels)", ErrTooLarge, cfg.Width, cfg.Height, pixels)
	}

	if isGIF(mediaType) {
		if animated, err := isAnimatedGIF(data); err == nil && animated {
			return Image{Data: data, Width: cfg.Width, Height: cfg.Height, Format: imaging.GIF, Passthrough: true}, nil
		}
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("thumbnail: decode: %w", err)
	}

	processed := src
	if opts.MaxWidth > 0 && src.Bounds().Dx() > opts.MaxWidth {
		processed = imaging.Resize(src, opts.MaxWidth, 0, imaging.Lanczos)
	}

	format := imaging.JPEG
	if isPNG(mediaType, data) && hasAlpha(processed) {
		format = imaging.PNG
	}

	var buf bytes.Buffer
	switch format {
	case imaging.PNG:
		err = imaging.Encode(&buf, processed, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		err = imaging.Encode(&buf, processed, imaging.JPEG, imaging.JPEGQuality(opts.JPEGQuality))
	}
	if err != nil {
		return Image{}, fmt.Errorf("thumbnail: encode %s: %w", format, err)
	}

	return Image{
		Data:   buf.Bytes(),
		Width:  processed.Bounds().Dx(),
		Height: processed.Bounds().Dy(),
		Format: format,
	}, nil
}

func isGIF(mediaType string) bool {
	return strings.EqualFold(strings.TrimSpace(mediaType), "image/gif")
}

// isPNG trusts the media type when there is one, else sniffs the signature.
func isPNG(mediaType string, data []byte) bool {
	if mediaType != "" {
		return strings.EqualFold(strings.TrimSpace(mediaType), "image/png")
	}
	return bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n"))
}

func isAnimatedGIF(data []byte) (bool, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	return len(g.Image) > 1, nil
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
