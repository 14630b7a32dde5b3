package editor

import (
	"fmt"
	"strings"

	"image-editor-go/internal/imageops"
	"image-editor-go/internal/pathref"
)

// check is one step of the validation gate.
type check func() error

// runChecks runs checks in order and stops at the first failure.
func runChecks(checks ...check) error {
	for _, c := range checks {
		if err := c(); err != nil {
			return err
		}
	}
	return nil
}

// CheckArgs verifies the number of positional arguments.
func CheckArgs(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return newError(KindUsage, "", fmt.Sprintf("expected %s arguments, got %d", argRange(min, max), len(args)), nil)
	}
	return nil
}

func argRange(min, max int) string {
	if min == max {
		return fmt.Sprint(min)
	}
	return fmt.Sprintf("%d to %d", min, max)
}

func checkExists(f pathref.FileRef) error {
	if !f.Exists() {
		return newError(KindNotFound, f.Path, "Source file does not exist", nil)
	}
	return nil
}

func checkFormat(f pathref.FileRef, allowed []string) error {
	if allowed == nil || f.HasExt(allowed) {
		return nil
	}
	msg := fmt.Sprintf("Not expected file format - %s", strings.Join(allowed, " "))
	return newError(KindFormat, f.Path, msg, nil)
}

func checkIntegrity(p imageops.Processor, f pathref.FileRef) error {
	if _, err := p.Verify(f.Path); err != nil {
		return newError(KindCorrupt, f.Path, "File invalid", err)
	}
	return nil
}

func checkDestination(f pathref.FileRef) error {
	if dir := f.Dir(); !dir.Exists() {
		return newError(KindDestinationMissing, dir.Path, "Directory does not exist", nil)
	}
	return nil
}

func checkDirectory(d pathref.DirRef) error {
	if !d.Exists() {
		return newError(KindDirectoryMissing, d.Path, "Directory does not exist", nil)
	}
	return nil
}
