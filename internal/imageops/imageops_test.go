package imageops

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// gradient returns an opaque image with a smooth diagonal gradient.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write test image %s: %v", path, err)
	}
}

func newProcessor() *DefaultProcessor {
	return NewDefaultProcessor(DefaultOptions())
}

func TestConvert_OpaqueJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "out.jpeg")
	writeImage(t, src, gradient(64, 48))

	p := newProcessor()
	res, err := p.Convert(src, dst)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.Width != 64 || res.Height != 48 {
		t.Errorf("Result size = %dx%d, expected 64x48", res.Width, res.Height)
	}
	if res.OutputSize == 0 || res.OriginalSize == 0 {
		t.Errorf("Expected sizes to be recorded, got %+v", res)
	}

	info, err := p.Verify(dst)
	if err != nil {
		t.Fatalf("Converted file failed verification: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Converted format = %q, expected jpeg", info.Format)
	}

	orig, _ := imaging.Open(src)
	conv, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("Failed to open converted image: %v", err)
	}
	h1, _ := goimagehash.AverageHash(orig)
	h2, _ := goimagehash.AverageHash(conv)
	dist, err := h1.Distance(h2)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if dist > 4 {
		t.Errorf("Converted image differs visibly from source: hash distance %d", dist)
	}
}

func TestConvert_TransparentBecomesWhite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clear.png")
	dst := filepath.Join(dir, "clear.jpeg")
	writeImage(t, src, image.NewNRGBA(image.Rect(0, 0, 20, 10)))

	if _, err := newProcessor().Convert(src, dst); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("Failed to open converted image: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("Converted size = %dx%d, expected 20x10", b.Dx(), b.Dy())
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := out.At(x, y).RGBA()
			if r>>8 < 250 || g>>8 < 250 || bl>>8 < 250 {
				t.Fatalf("Pixel (%d,%d) = (%d,%d,%d), expected white", x, y, r>>8, g>>8, bl>>8)
			}
		}
	}
}

func TestConvert_ForcesJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "out.png")
	writeImage(t, src, gradient(16, 16))

	p := newProcessor()
	if _, err := p.Convert(src, dst); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	info, err := p.Verify(dst)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if info.Format != "jpeg" {
		t.Errorf("Expected JPEG content regardless of extension, got %q", info.Format)
	}
}

func TestConvert_InvalidSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(src, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if _, err := newProcessor().Convert(src, filepath.Join(dir, "out.jpeg")); err == nil {
		t.Error("Expected Convert to fail on invalid source")
	}
}

func TestCompress_QualityRange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeImage(t, src, gradient(40, 30))
	p := newProcessor()

	for _, q := range []int{1, 2, 50, 75, 94, 95} {
		dst := filepath.Join(dir, "out.jpg")
		res, err := p.Compress(src, dst, q)
		if err != nil {
			t.Fatalf("Compress(q=%d) failed: %v", q, err)
		}
		if res.Width != 40 || res.Height != 30 {
			t.Errorf("Compress(q=%d) size = %dx%d, expected 40x30", q, res.Width, res.Height)
		}
		info, err := p.Verify(dst)
		if err != nil {
			t.Fatalf("Compress(q=%d) output failed verification: %v", q, err)
		}
		if info.Format != "jpeg" || info.Width != 40 || info.Height != 30 {
			t.Errorf("Compress(q=%d) output = %+v", q, info)
		}
	}
}

func TestCompress_LowerQualityIsSmaller(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeImage(t, src, gradient(200, 150))
	p := newProcessor()

	low, err := p.Compress(src, filepath.Join(dir, "low.jpg"), 5)
	if err != nil {
		t.Fatalf("Compress low failed: %v", err)
	}
	high, err := p.Compress(src, filepath.Join(dir, "high.jpg"), 95)
	if err != nil {
		t.Fatalf("Compress high failed: %v", err)
	}
	if low.OutputSize >= high.OutputSize {
		t.Errorf("Expected quality 5 (%d bytes) to be smaller than quality 95 (%d bytes)", low.OutputSize, high.OutputSize)
	}
}

func TestCompress_PreservesGrayscale(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gray.jpg")
	gray := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}
	writeImage(t, src, gray)

	dst := filepath.Join(dir, "gray-out.jpg")
	if _, err := newProcessor().Compress(src, dst, 60); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	out, err := imaging.Open(dst)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	if _, ok := out.(*image.Gray); !ok {
		t.Errorf("Expected grayscale output, got %T", out)
	}
}

func TestCompress_Errors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeImage(t, src, gradient(8, 8))
	p := newProcessor()

	if _, err := p.Compress(src, filepath.Join(dir, "out.jpg"), 0); err == nil {
		t.Error("Expected error for quality 0")
	}

	dst := filepath.Join(dir, "out.txt")
	if _, err := p.Compress(src, dst, 50); err == nil {
		t.Error("Expected error for unsupported destination extension")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("No output should be written for an unsupported extension")
	}

	if _, err := p.Compress(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "x.jpg"), 50); err == nil {
		t.Error("Expected error for missing source")
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		ext        string
		w, h       int
		proportion int
		wantW      int
		wantH      int
		wantFormat string
	}{
		{"Halve JPEG", ".jpg", 100, 60, 2, 50, 30, "jpeg"},
		{"Third floors", ".jpg", 100, 60, 3, 33, 20, "jpeg"},
		{"Identity", ".jpeg", 17, 9, 1, 17, 9, "jpeg"},
		{"PNG keeps format", ".png", 40, 40, 4, 10, 10, "png"},
		{"Exact fit to one pixel", ".png", 60, 30, 30, 2, 1, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "src"+tt.ext)
			dst := filepath.Join(dir, "dst"+tt.ext)
			writeImage(t, src, gradient(tt.w, tt.h))

			p := newProcessor()
			res, err := p.Resize(src, dst, tt.proportion)
			if err != nil {
				t.Fatalf("Resize failed: %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("Result = %dx%d, expected %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
			info, err := p.Verify(dst)
			if err != nil {
				t.Fatalf("Output failed verification: %v", err)
			}
			if info.Width != tt.wantW || info.Height != tt.wantH || info.Format != tt.wantFormat {
				t.Errorf("Output = %+v, expected %dx%d %s", info, tt.wantW, tt.wantH, tt.wantFormat)
			}
		})
	}
}

func TestResize_DegenerateRejected(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	writeImage(t, src, gradient(100, 10))
	p := newProcessor()

	for _, proportion := range []int{11, 101, 1000} {
		dst := filepath.Join(dir, "dst.jpg")
		_, err := p.Resize(src, dst, proportion)
		if !errors.Is(err, ErrDegenerateSize) {
			t.Errorf("Resize(P=%d) error = %v, expected ErrDegenerateSize", proportion, err)
		}
		if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
			t.Errorf("Resize(P=%d) should not write an output file", proportion)
		}
	}

	if _, err := p.Resize(src, filepath.Join(dir, "dst.jpg"), 0); err == nil {
		t.Error("Expected error for proportion 0")
	}
}

func TestResize_Filters(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeImage(t, src, gradient(30, 30))

	for _, name := range []string{"nearest", "box", "linear", "catmullrom", "lanczos"} {
		t.Run(name, func(t *testing.T) {
			f, err := ParseFilter(name)
			if err != nil {
				t.Fatalf("ParseFilter(%q) failed: %v", name, err)
			}
			opts := DefaultOptions()
			opts.Filter = f
			res, err := NewDefaultProcessor(opts).Resize(src, filepath.Join(dir, name+".png"), 3)
			if err != nil {
				t.Fatalf("Resize with %s failed: %v", name, err)
			}
			if res.Width != 10 || res.Height != 10 {
				t.Errorf("Result = %dx%d, expected 10x10", res.Width, res.Height)
			}
		})
	}

	if _, err := ParseFilter("bogus"); err == nil {
		t.Error("Expected error for unknown filter")
	}
	if _, err := ParseFilter("Lanczos"); err != nil {
		t.Errorf("Filter names should be case-insensitive: %v", err)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	p := newProcessor()

	goodPNG := filepath.Join(dir, "good.png")
	writeImage(t, goodPNG, gradient(16, 16))
	goodJPG := filepath.Join(dir, "good.jpg")
	writeImage(t, goodJPG, gradient(16, 16))

	data, err := os.ReadFile(goodPNG)
	if err != nil {
		t.Fatalf("Failed to read PNG: %v", err)
	}

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-20] ^= 0xff
	badCRC := filepath.Join(dir, "crc.png")
	if err := os.WriteFile(badCRC, flipped, 0644); err != nil {
		t.Fatalf("Failed to write corrupted PNG: %v", err)
	}

	truncated := filepath.Join(dir, "truncated.png")
	if err := os.WriteFile(truncated, data[:len(data)-12], 0644); err != nil {
		t.Fatalf("Failed to write truncated PNG: %v", err)
	}

	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("definitely not a jpeg"), 0644); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}

	empty := filepath.Join(dir, "empty.png")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		format  string
	}{
		{"Valid PNG", goodPNG, false, "png"},
		{"Valid JPEG", goodJPG, false, "jpeg"},
		{"PNG checksum mismatch", badCRC, true, ""},
		{"PNG missing IEND", truncated, true, ""},
		{"Garbage bytes", garbage, true, ""},
		{"Empty file", empty, true, ""},
		{"Missing file", filepath.Join(dir, "missing.png"), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := p.Verify(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify(%s) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && info.Format != tt.format {
				t.Errorf("Format = %q, expected %q", info.Format, tt.format)
			}
		})
	}
}
