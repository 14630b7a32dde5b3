package metadata

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Report describes an image for the info command.
type Report struct {
	Path        string
	Format      string
	Width       int
	Height      int
	Size        int64
	AverageHash uint64

	// EXIF fields, zero when the file carries no EXIF block.
	DateTime    *time.Time
	Make        string
	Model       string
	Orientation int
}

// HasEXIF reports whether any EXIF field was found.
func (r *Report) HasEXIF() bool {
	return r.DateTime != nil || r.Make != "" || r.Model != "" || r.Orientation != 0
}

// Inspect reads the format, dimensions, perceptual hash and EXIF fields of
// the image at path. Missing EXIF data is not an error.
func Inspect(path string) (*Report, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}
	img, err := imaging.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	report := &Report{
		Path:        path,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        fileInfo.Size(),
		AverageHash: hash.GetHash(),
	}

	if _, err := file.Seek(0, 0); err == nil {
		readEXIF(file, report)
	}
	return report, nil
}

// readEXIF fills the EXIF fields of r. Decode failures leave them empty.
func readEXIF(file *os.File, r *Report) {
	x, err := exif.Decode(file)
	if err != nil {
		return
	}

	if tm, err := x.DateTime(); err == nil {
		r.DateTime = &tm
	}
	if tag, err := x.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			r.Make = s
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			r.Model = s
		}
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			r.Orientation = v
		}
	}
}
