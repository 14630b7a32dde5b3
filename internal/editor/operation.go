package editor

import (
	"fmt"

	"image-editor-go/internal/pathref"
)

// Op is one of the transformations the editor knows how to run.
type Op int

const (
	OpConvert Op = iota
	OpCompress
	OpResize
)

var (
	compressExtensions = []string{".jpg", ".jpeg"}
	resizeExtensions   = []string{".jpg", ".jpeg", ".png"}
)

// ParseOp returns the operation named by a single-file command.
func ParseOp(name string) (Op, error) {
	switch name {
	case "convert":
		return OpConvert, nil
	case "compress":
		return OpCompress, nil
	case "resize":
		return OpResize, nil
	}
	return 0, fmt.Errorf("unknown operation: %s", name)
}

func (o Op) String() string {
	switch o {
	case OpConvert:
		return "convert"
	case OpCompress:
		return "compress"
	case OpResize:
		return "resize"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// BatchName is the command name of the directory variant.
func (o Op) BatchName() string {
	return "dir-" + o.String()
}

// Title is the capitalised name used in log messages.
func (o Op) Title() string {
	switch o {
	case OpConvert:
		return "Convert"
	case OpCompress:
		return "Compress"
	case OpResize:
		return "Resize"
	default:
		return o.String()
	}
}

// Suffix is appended to the base name of batch outputs.
func (o Op) Suffix() string {
	switch o {
	case OpConvert:
		return "Converted"
	case OpCompress:
		return "Compressed"
	case OpResize:
		return "Resized"
	default:
		return ""
	}
}

// Extensions returns the accepted source extensions, or nil when any input
// is accepted.
func (o Op) Extensions() []string {
	switch o {
	case OpCompress:
		return compressExtensions
	case OpResize:
		return resizeExtensions
	default:
		return nil
	}
}

// OutputName derives the batch output file name for src. Convert always
// produces .jpeg; the others keep the source extension.
func (o Op) OutputName(src pathref.FileRef) string {
	ext := src.Ext
	if o == OpConvert {
		ext = ".jpeg"
	}
	return src.Name + "-" + o.Suffix() + ext
}

func (o Op) failureKind() Kind {
	switch o {
	case OpConvert:
		return KindConversion
	case OpCompress:
		return KindCompression
	default:
		return KindResize
	}
}
