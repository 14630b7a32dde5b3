package imageops

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultProcessor is the imaging-backed implementation of Processor.
type DefaultProcessor struct {
	opts Options
}

// NewDefaultProcessor creates a new DefaultProcessor instance.
func NewDefaultProcessor(opts Options) *DefaultProcessor {
	if opts.ConvertQuality <= 0 {
		opts.ConvertQuality = DefaultOptions().ConvertQuality
	}
	if opts.ResizeQuality <= 0 {
		opts.ResizeQuality = DefaultOptions().ResizeQuality
	}
	return &DefaultProcessor{opts: opts}
}

// Convert composites the source over an opaque white canvas using its alpha
// channel and encodes the result as JPEG, whatever the destination extension.
// Sources without alpha are opaque and come through unchanged.
func (p *DefaultProcessor) Convert(src, dst string) (Result, error) {
	res := newResult(src, dst)

	img, err := imaging.Open(src)
	if err != nil {
		return res, fmt.Errorf("open error: %w", err)
	}

	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	out, err := os.Create(dst)
	if err != nil {
		return res, fmt.Errorf("create error: %w", err)
	}
	if err := imaging.Encode(out, flat, imaging.JPEG, imaging.JPEGQuality(p.opts.ConvertQuality)); err != nil {
		_ = out.Close()
		return res, fmt.Errorf("encode error: %w", err)
	}
	if err := out.Close(); err != nil {
		return res, fmt.Errorf("close error: %w", err)
	}

	return finishResult(res, flat.Bounds()), nil
}

// Compress re-encodes src at the given quality. The output format follows
// the destination extension.
func (p *DefaultProcessor) Compress(src, dst string, quality int) (Result, error) {
	res := newResult(src, dst)
	if quality < 1 || quality > 100 {
		return res, fmt.Errorf("quality %d out of encoder range", quality)
	}

	img, err := imaging.Open(src)
	if err != nil {
		return res, fmt.Errorf("open error: %w", err)
	}

	if err := imaging.Save(img, dst, imaging.JPEGQuality(quality)); err != nil {
		return res, fmt.Errorf("save error: %w", err)
	}

	return finishResult(res, img.Bounds()), nil
}

// Resize writes src scaled to (width/proportion, height/proportion) using
// integer division. Proportions that collapse a dimension to zero are
// rejected before anything is written.
func (p *DefaultProcessor) Resize(src, dst string, proportion int) (Result, error) {
	res := newResult(src, dst)
	if proportion <= 0 {
		return res, fmt.Errorf("proportion must be positive, got %d", proportion)
	}

	img, err := imaging.Open(src)
	if err != nil {
		return res, fmt.Errorf("open error: %w", err)
	}

	b := img.Bounds()
	width, height := b.Dx()/proportion, b.Dy()/proportion
	if width == 0 || height == 0 {
		return res, fmt.Errorf("%dx%d / %d: %w", b.Dx(), b.Dy(), proportion, ErrDegenerateSize)
	}

	resized := imaging.Resize(img, width, height, p.opts.Filter)
	if err := imaging.Save(resized, dst, imaging.JPEGQuality(p.opts.ResizeQuality)); err != nil {
		return res, fmt.Errorf("save error: %w", err)
	}

	return finishResult(res, resized.Bounds()), nil
}

func newResult(src, dst string) Result {
	res := Result{InputPath: src, OutputPath: dst}
	if info, err := os.Stat(src); err == nil {
		res.OriginalSize = info.Size()
	}
	return res
}

func finishResult(res Result, bounds image.Rectangle) Result {
	res.Width = bounds.Dx()
	res.Height = bounds.Dy()
	if info, err := os.Stat(res.OutputPath); err == nil {
		res.OutputSize = info.Size()
	}
	return res
}
