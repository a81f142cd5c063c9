package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 400
	DefaultQuality  = 0.7

	// DefaultMaxPixels bounds the decoded size of an input image (about 50MP)
	DefaultMaxPixels = 50_000_000
)

type compressOptions struct {
	maxWidth  int
	quality   float64
	maxPixels int
}

type CompressOption func(*compressOptions)

// WithMaxWidth sets the maximum output width in pixels
func WithMaxWidth(w int) CompressOption {
	return func(o *compressOptions) {
		o.maxWidth = w
	}
}

// WithMaxPixels sets the largest accepted input, as width times height
func WithMaxPixels(n int) CompressOption {
	return func(o *compressOptions) {
		o.maxPixels = n
	}
}

// WithQuality sets the lossy quality factor in (0, 1]
func WithQuality(q float64) CompressOption {
	return func(o *compressOptions) {
		o.quality = q
	}
}

// Compress decodes a data URI image, shrinks it to the maximum width keeping
// the aspect ratio (never upscaling) and re-encodes it as a JPEG data URI.
// Undecodable input yields a model.ErrImageDecode failure.
func Compress(src string, opts ...CompressOption) (string, error) {
	o := compressOptions{
		maxWidth:  DefaultMaxWidth,
		quality:   DefaultQuality,
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxWidth <= 0 {
		return "", goerr.New("max width must be positive", goerr.V("max_width", o.maxWidth))
	}
	if o.quality <= 0 || o.quality > 1 {
		return "", goerr.New("quality must be in (0, 1]", goerr.V("quality", o.quality))
	}
	if o.maxPixels <= 0 {
		return "", goerr.New("max pixels must be positive", goerr.V("max_pixels", o.maxPixels))
	}

	uri, err := ParseDataURI(src)
	if err != nil {
		return "", model.ImageDecodeError(err)
	}

	// Dimensions come from the header, before any pixel buffer is allocated
	cfg, _, err := image.DecodeConfig(bytes.NewReader(uri.Data))
	if err != nil {
		return "", model.ImageDecodeError(goerr.Wrap(err, "failed to read image header", goerr.V("mime_type", uri.MIMEType)))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(o.maxPixels) {
		return "", model.ImageDecodeError(goerr.New("image dimensions exceed limit",
			goerr.V("width", cfg.Width), goerr.V("height", cfg.Height), goerr.V("max_pixels", o.maxPixels)))
	}

	img, _, err := image.Decode(bytes.NewReader(uri.Data))
	if err != nil {
		return "", model.ImageDecodeError(goerr.Wrap(err, "failed to decode image", goerr.V("mime_type", uri.MIMEType)))
	}

	width, height := TargetSize(img.Bounds().Dx(), img.Bounds().Dy(), o.maxWidth)

	// JPEG has no alpha channel; transparent areas become white instead of black
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(o.quality)}); err != nil {
		return "", goerr.Wrap(err, "failed to encode jpeg")
	}

	out := &DataURI{MIMEType: "image/jpeg", Data: buf.Bytes()}
	return out.String(), nil
}

// TargetSize returns the output dimensions for an image of w x h pixels
func TargetSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth {
		return w, h
	}
	nh := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return maxWidth, nh
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
