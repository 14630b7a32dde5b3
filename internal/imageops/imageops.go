package imageops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrDegenerateSize is returned by Resize when the proportion would shrink
// a dimension to zero pixels.
var ErrDegenerateSize = errors.New("resized image would have a zero dimension")

// Info describes an image as seen by the integrity check.
type Info struct {
	Format string
	Width  int
	Height int
}

// Result describes the output of a single transformation.
type Result struct {
	InputPath    string
	OutputPath   string
	OriginalSize int64
	OutputSize   int64
	Width        int
	Height       int
}

// Processor defines the image operations the editor pipeline applies.
type Processor interface {
	// Verify checks the structure of the file without decoding pixel data.
	Verify(path string) (Info, error)
	// Convert flattens the image onto white and writes it as JPEG.
	Convert(src, dst string) (Result, error)
	// Compress re-encodes the image at the given JPEG quality.
	Compress(src, dst string, quality int) (Result, error)
	// Resize divides both dimensions by proportion.
	Resize(src, dst string, proportion int) (Result, error)
}

// Options tunes the encoder and resampler used by DefaultProcessor.
// The zero Filter is imaging.NearestNeighbor.
type Options struct {
	ConvertQuality int
	ResizeQuality  int
	Filter         imaging.ResampleFilter
}

// DefaultOptions returns the options matching the editor's documented behaviour.
func DefaultOptions() Options {
	return Options{
		ConvertQuality: 75,
		ResizeQuality:  100,
		Filter:         imaging.Lanczos,
	}
}

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

// ParseFilter returns the resample filter registered under name.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter: %s (valid: nearest, box, linear, catmullrom, lanczos)", name)
	}
	return f, nil
}
