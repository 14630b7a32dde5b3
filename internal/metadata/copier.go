package metadata

import (
	"fmt"
	"os/exec"
	"strings"

	"image-editor-go/internal/logger"

	"github.com/barasher/go-exiftool"
	"github.com/sirupsen/logrus"
)

// Tags whose presence means the file carries embedded metadata worth
// copying, as opposed to what exiftool derives from the file itself.
var embeddedTags = []string{
	"ExifByteOrder",
	"ExifVersion",
	"XMPToolkit",
	"CurrentIPTCDigest",
	"ProfileDescription",
}

// ExifCopier copies metadata between images with the exiftool binary.
// It is safe for concurrent use.
type ExifCopier struct {
	et     *exiftool.Exiftool
	logger *logrus.Logger
}

// NewExifCopier starts a long-running exiftool process. It fails when the
// exiftool binary is not installed.
func NewExifCopier(logger *logrus.Logger) (*ExifCopier, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExifCopier{et: et, logger: logger}, nil
}

// Copy writes the metadata tags of src into dst. It is a no-op when src has
// no embedded metadata.
func (c *ExifCopier) Copy(src, dst string) error {
	files := c.et.ExtractMetadata(src)
	if len(files) == 0 {
		return fmt.Errorf("exiftool returned no metadata for %s", src)
	}
	if files[0].Err != nil {
		return fmt.Errorf("failed to read metadata: %w", files[0].Err)
	}
	if !hasEmbeddedTags(files[0].Fields) {
		logger.WithFile(c.logger, src).Debug("No embedded metadata to copy")
		return nil
	}

	cmd := exec.Command("exiftool", "-TagsFromFile", src, "-overwrite_original", dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("exiftool copy failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	logger.WithFile(c.logger, dst).Debugf("Copied metadata from %s", src)
	return nil
}

// Close stops the exiftool process.
func (c *ExifCopier) Close() error {
	return c.et.Close()
}

func hasEmbeddedTags(fields map[string]interface{}) bool {
	for _, tag := range embeddedTags {
		if _, ok := fields[tag]; ok {
			return true
		}
	}
	return false
}
