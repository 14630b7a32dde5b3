package editor

import (
	"context"
	"strings"
	"sync"

	"image-editor-go/internal/logger"
	"image-editor-go/internal/pathref"
	"image-editor-go/internal/statistics"

	"github.com/schollz/progressbar/v3"
)

// job is one planned file of a batch.
type job struct {
	src pathref.FileRef
	dst pathref.FileRef
}

// RunBatch applies op to every eligible file directly inside req.Source and
// writes the results into req.Destination, creating it if needed.
//
// Only batch-wide preconditions are returned as errors. Per-file problems are
// logged, counted in the returned statistics and skipped. When ctx is
// cancelled no new files are started and ctx.Err() is returned alongside the
// statistics gathered so far.
func (e *Editor) RunBatch(ctx context.Context, op Op, req Request) (*statistics.Statistics, error) {
	stats := statistics.NewStatistics()
	entry := logger.WithOperation(e.log, op.BatchName())

	in, err := pathref.NewDirRef(req.Source)
	if err != nil {
		return stats, e.fail(entry, newError(KindUsage, req.Source, "Invalid input directory", err))
	}
	out, err := pathref.NewDirRef(req.Destination)
	if err != nil {
		return stats, e.fail(entry, newError(KindUsage, req.Destination, "Invalid output directory", err))
	}

	if err := checkDirectory(in); err != nil {
		return stats, e.fail(entry, err)
	}
	if err := out.Ensure(); err != nil {
		return stats, e.fail(entry, newError(KindDirectoryMissing, out.Path, "Could not create directory", err))
	}
	value, err := e.resolveParam(op, req.Param)
	if err != nil {
		return stats, e.fail(entry, err)
	}

	files, err := in.Files()
	if err != nil {
		return stats, e.fail(entry, newError(KindDirectoryMissing, in.Path, "Could not list directory", err))
	}

	entry.Infof("Found %d files in %s", len(files), in.Path)
	jobs := e.plan(op, files, out, stats)

	err = e.execute(ctx, op, jobs, value, stats)
	stats.Finalize()

	entry.Infof("%s finished: %d succeeded, %d skipped, %d failed",
		op.BatchName(), stats.FilesSucceeded, stats.FilesSkipped(), stats.FilesWithErrors)
	return stats, err
}

// plan applies the format filter and the collision check in listing order.
// A destination that exists on disk or was already claimed by an earlier
// file of the same run is skipped.
func (e *Editor) plan(op Op, files []pathref.FileRef, out pathref.DirRef, stats *statistics.Statistics) []job {
	claimed := make(map[string]bool, len(files))
	jobs := make([]job, 0, len(files))

	for _, src := range files {
		stats.IncrementFilesFound()
		stats.IncrementFileType(fileType(src))
		entry := logger.WithFileOperation(e.log, src.Path, op.BatchName())

		if err := checkFormat(src, op.Extensions()); err != nil {
			entry.Infof("Skip file %s: %v", src.Path, err)
			stats.IncrementSkippedFormat()
			continue
		}

		dst, err := out.File(op.OutputName(src))
		if err != nil {
			entry.Warnf("Skip file %s: %v", src.Path, err)
			stats.IncrementFilesWithErrors()
			stats.AddError(src.Path, "plan", err.Error())
			continue
		}

		if claimed[dst.Path] || dst.Exists() {
			entry.Infof("Skip file %s that already exist.", dst.Path)
			stats.IncrementSkippedExisting()
			continue
		}
		claimed[dst.Path] = true
		jobs = append(jobs, job{src: src, dst: dst})
	}
	return jobs
}

// execute runs jobs on the configured number of workers.
func (e *Editor) execute(ctx context.Context, op Op, jobs []job, value int, stats *statistics.Statistics) error {
	workers := e.cfg.Batch.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	bar := e.newProgressBar(op, len(jobs))
	defer bar.Finish()

	var wg sync.WaitGroup
	jobChan := make(chan job)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				e.processJob(op, j, value, stats)
				_ = bar.Add(1)
			}
		}()
	}

	var err error
dispatch:
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		default:
		}
		select {
		case jobChan <- j:
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		}
	}
	close(jobChan)
	wg.Wait()

	if err != nil {
		logger.WithOperation(e.log, op.BatchName()).Warnf("Batch interrupted: %v", err)
	}
	return err
}

// processJob verifies and transforms one file. Failures only skip the file.
func (e *Editor) processJob(op Op, j job, value int, stats *statistics.Statistics) {
	entry := logger.WithFileOperation(e.log, j.src.Path, op.BatchName())
	entry.Debugf("Processing file: %s", j.src.Path)
	stats.IncrementFilesProcessed()

	if err := checkIntegrity(e.processor, j.src); err != nil {
		entry.WithField("kind", KindCorrupt.String()).Warnf("Skip file %s: %v", j.src.Path, err)
		stats.IncrementSkippedCorrupt()
		stats.AddError(j.src.Path, "verify", err.Error())
		return
	}

	res, err := e.apply(entry, op, j.src, j.dst, value)
	if err != nil {
		entry.WithField("kind", kindOf(err).String()).Errorf("Skip file %s: %v", j.src.Path, err)
		stats.IncrementFilesWithErrors()
		stats.AddError(j.src.Path, op.String(), err.Error())
		return
	}

	stats.IncrementFilesSucceeded()
	stats.AddBytes(res.OriginalSize, res.OutputSize)
}

func (e *Editor) newProgressBar(op Op, n int) *progressbar.ProgressBar {
	if e.progress == nil {
		return progressbar.DefaultSilent(int64(n))
	}
	bar := progressbar.NewOptions(n,
		progressbar.OptionSetWriter(e.progress),
		progressbar.OptionSetDescription(op.BatchName()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
	// Draw the empty bar now; otherwise nothing shows until the first file is done.
	_ = bar.RenderBlank()
	return bar
}

func kindOf(err error) Kind {
	if ee, ok := err.(*Error); ok {
		return ee.Kind
	}
	return KindUsage
}

func fileType(f pathref.FileRef) string {
	if f.Ext == "" {
		return "NONE"
	}
	return strings.ToUpper(strings.TrimPrefix(f.Ext, "."))
}
