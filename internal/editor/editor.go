package editor

import (
	"fmt"
	"io"

	"image-editor-go/internal/config"
	"image-editor-go/internal/imageops"
	"image-editor-go/internal/logger"
	"image-editor-go/internal/metadata"
	"image-editor-go/internal/pathref"

	"github.com/sirupsen/logrus"
)

// MetadataCopier copies metadata tags from one image to another.
type MetadataCopier interface {
	Copy(src, dst string) error
}

// Request holds the positional arguments of a command.
type Request struct {
	Source      string
	Destination string
	Param       Param
}

// Editor runs the validation gate and the transformations for single files
// and directories.
type Editor struct {
	cfg       *config.Config
	log       *logrus.Logger
	processor imageops.Processor
	copier    MetadataCopier
	progress  io.Writer
}

// NewEditor returns a new Editor. copier may be nil, in which case metadata
// is never copied.
func NewEditor(cfg *config.Config, log *logrus.Logger, processor imageops.Processor, copier MetadataCopier) *Editor {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Editor{
		cfg:       cfg,
		log:       log,
		processor: processor,
		copier:    copier,
	}
}

// SetProgressOutput enables the batch progress bar on w. A nil writer
// disables it.
func (e *Editor) SetProgressOutput(w io.Writer) {
	e.progress = w
}

// Run applies op to a single file. Every check failure is fatal and is
// returned as an *Error.
func (e *Editor) Run(op Op, req Request) error {
	entry := logger.WithFileOperation(e.log, req.Source, op.String())

	src, err := pathref.NewFileRef(req.Source)
	if err != nil {
		return e.fail(entry, newError(KindUsage, req.Source, "Invalid source path", err))
	}
	dst, err := pathref.NewFileRef(req.Destination)
	if err != nil {
		return e.fail(entry, newError(KindUsage, req.Destination, "Invalid destination path", err))
	}

	var value int
	err = runChecks(
		func() error { return checkExists(src) },
		func() error { return checkFormat(src, op.Extensions()) },
		func() error { return checkIntegrity(e.processor, src) },
		func() error { return checkDestination(dst) },
		func() (err error) {
			value, err = e.resolveParam(op, req.Param)
			return err
		},
	)
	if err != nil {
		return e.fail(entry, err)
	}

	if _, err := e.apply(entry, op, src, dst, value); err != nil {
		return e.fail(entry, err)
	}
	return nil
}

// Info inspects a single file after the existence and integrity checks.
func (e *Editor) Info(path string) (*metadata.Report, error) {
	entry := logger.WithFileOperation(e.log, path, "info")

	src, err := pathref.NewFileRef(path)
	if err != nil {
		return nil, e.fail(entry, newError(KindUsage, path, "Invalid source path", err))
	}
	if err := runChecks(
		func() error { return checkExists(src) },
		func() error { return checkIntegrity(e.processor, src) },
	); err != nil {
		return nil, e.fail(entry, err)
	}

	report, err := metadata.Inspect(src.Path)
	if err != nil {
		return nil, e.fail(entry, newError(KindCorrupt, src.Path, "File invalid", err))
	}
	entry.Debugf("Inspected %s: %dx%d %s", src.Path, report.Width, report.Height, report.Format)
	return report, nil
}

func (e *Editor) resolveParam(op Op, p Param) (int, error) {
	switch op {
	case OpCompress:
		return ParseQuality(p, e.cfg.Compress.DefaultQuality)
	case OpResize:
		return ParseProportion(p, e.cfg.Resize.DefaultProportion)
	default:
		return 0, nil
	}
}

// apply runs the transformation. Any failure of the imaging layer collapses
// into the operation's failure kind; the cause is logged at warning level.
func (e *Editor) apply(entry *logrus.Entry, op Op, src, dst pathref.FileRef, value int) (imageops.Result, error) {
	var (
		res imageops.Result
		err error
	)
	switch op {
	case OpConvert:
		res, err = e.processor.Convert(src.Path, dst.Path)
	case OpCompress:
		res, err = e.processor.Compress(src.Path, dst.Path, value)
	case OpResize:
		res, err = e.processor.Resize(src.Path, dst.Path, value)
	default:
		return res, newError(KindUsage, src.Path, fmt.Sprintf("Unknown operation %s", op), nil)
	}
	if err != nil {
		entry.Warnf("Error: %v", err)
		return res, newError(op.failureKind(), src.Path, fmt.Sprintf("Failed to %s image", op), err)
	}

	if op == OpCompress && e.copier != nil {
		if err := e.copier.Copy(src.Path, dst.Path); err != nil {
			entry.Warnf("Could not preserve metadata for %s: %v", dst.Path, err)
		}
	}

	entry.Infof("%s image %s success.", op.Title(), dst.Path)
	return res, nil
}

// fail logs err once and returns it unchanged.
func (e *Editor) fail(entry *logrus.Entry, err error) error {
	if ee, ok := err.(*Error); ok {
		entry = entry.WithField("kind", ee.Kind.String())
	}
	entry.Error(err.Error())
	return err
}
