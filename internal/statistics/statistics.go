package statistics

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// maxErrorsShown bounds the error list in GetErrorSummary.
const maxErrorsShown = 10

// Statistics contains the counters for one batch run.
type Statistics struct {
	TotalFilesFound     int64
	TotalFilesProcessed int64
	FilesSucceeded      int64
	FilesWithErrors     int64

	SkippedExisting int64
	SkippedFormat   int64
	SkippedCorrupt  int64

	BytesRead    int64
	BytesWritten int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []StatError

	FileTypeStats map[string]int64

	mutex sync.RWMutex
}

// StatError represents a file that failed or was skipped for a problem.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:     time.Now(),
		FileTypeStats: make(map[string]int64),
		Errors:        make([]StatError, 0),
	}
}

// IncrementFilesFound increases the count of found files by 1.
func (s *Statistics) IncrementFilesFound() {
	atomic.AddInt64(&s.TotalFilesFound, 1)
}

// IncrementFilesProcessed increases the count of files that reached the
// integrity check by 1.
func (s *Statistics) IncrementFilesProcessed() {
	atomic.AddInt64(&s.TotalFilesProcessed, 1)
}

// IncrementFilesSucceeded increases the count of written outputs by 1.
func (s *Statistics) IncrementFilesSucceeded() {
	atomic.AddInt64(&s.FilesSucceeded, 1)
}

// IncrementFilesWithErrors increases the count of failed transformations by 1.
func (s *Statistics) IncrementFilesWithErrors() {
	atomic.AddInt64(&s.FilesWithErrors, 1)
}

// IncrementSkippedExisting increases the count of files whose output already existed.
func (s *Statistics) IncrementSkippedExisting() {
	atomic.AddInt64(&s.SkippedExisting, 1)
}

// IncrementSkippedFormat increases the count of files with a disallowed extension.
func (s *Statistics) IncrementSkippedFormat() {
	atomic.AddInt64(&s.SkippedFormat, 1)
}

// IncrementSkippedCorrupt increases the count of files that failed verification.
func (s *Statistics) IncrementSkippedCorrupt() {
	atomic.AddInt64(&s.SkippedCorrupt, 1)
}

// FilesSkipped returns the total of all skip counters.
func (s *Statistics) FilesSkipped() int64 {
	return atomic.LoadInt64(&s.SkippedExisting) +
		atomic.LoadInt64(&s.SkippedFormat) +
		atomic.LoadInt64(&s.SkippedCorrupt)
}

// IncrementFileType increases the count for a specific file type by 1.
func (s *Statistics) IncrementFileType(fileType string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FileTypeStats[fileType]++
}

// AddBytes records the size of an input and the output written for it.
func (s *Statistics) AddBytes(read, written int64) {
	atomic.AddInt64(&s.BytesRead, read)
	atomic.AddInt64(&s.BytesWritten, written)
}

// AddError records a problem with a single file.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Finalize calculates duration and throughput.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(atomic.LoadInt64(&s.TotalFilesProcessed)) / s.Duration.Seconds()
	}
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration, fps := s.Duration, s.FilesPerSecond
	s.mutex.RUnlock()

	return fmt.Sprintf(`Image Editor Batch Summary:

Files:
		Found: %d
		Processed: %d
		Succeeded: %d
		Failed: %d

Skipped:
		Output Exists: %d
		Format Not Allowed: %d
		Corrupt: %d

Performance:
		Duration: %v
		Files/Second: %.2f
		Bytes Read: %s
		Bytes Written: %s`,
		atomic.LoadInt64(&s.TotalFilesFound),
		atomic.LoadInt64(&s.TotalFilesProcessed),
		atomic.LoadInt64(&s.FilesSucceeded),
		atomic.LoadInt64(&s.FilesWithErrors),
		atomic.LoadInt64(&s.SkippedExisting),
		atomic.LoadInt64(&s.SkippedFormat),
		atomic.LoadInt64(&s.SkippedCorrupt),
		duration,
		fps,
		formatBytes(atomic.LoadInt64(&s.BytesRead)),
		formatBytes(atomic.LoadInt64(&s.BytesWritten)))
}

// GetFileTypeBreakdown returns a formatted breakdown of file types found.
func (s *Statistics) GetFileTypeBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.FileTypeStats) == 0 {
		return "No file type statistics available"
	}

	types := make([]string, 0, len(s.FileTypeStats))
	for fileType := range s.FileTypeStats {
		types = append(types, fileType)
	}
	sort.Strings(types)

	result := "File Type Breakdown:\n"
	for _, fileType := range types {
		result += fmt.Sprintf("  %s: %d\n", fileType, s.FileTypeStats[fileType])
	}
	return result
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= maxErrorsShown {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-maxErrorsShown)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// ErrorCount returns the number of recorded errors.
func (s *Statistics) ErrorCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.Errors)
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
