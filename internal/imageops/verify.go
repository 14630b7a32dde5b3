package imageops

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"io"
	"os"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Verify opens path and checks that a registered decoder recognises its
// header. PNG files additionally have every chunk CRC checked up to IEND.
// Pixel data is never decoded.
func (p *DefaultProcessor) Verify(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open error: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return Info{}, fmt.Errorf("decode header: %w", err)
	}
	info := Info{Format: format, Width: cfg.Width, Height: cfg.Height}

	if format == "png" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return info, fmt.Errorf("rewind: %w", err)
		}
		if err := verifyPNGChunks(f); err != nil {
			return info, err
		}
	}

	return info, nil
}

// verifyPNGChunks walks the chunk list and compares each stored CRC with
// the one computed over the chunk type and data.
func verifyPNGChunks(r io.Reader) error {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil || !bytes.Equal(sig, pngSignature) {
		return fmt.Errorf("png: bad signature")
	}

	var header [8]byte
	var sum [4]byte
	for {
		if _, err := io.ReadFull(br, header[:]); err != nil {
			return fmt.Errorf("png: truncated before IEND: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		if length > 0x7fffffff {
			return fmt.Errorf("png: chunk length %d too large", length)
		}
		chunkType := string(header[4:8])

		crc := crc32.NewIEEE()
		crc.Write(header[4:8])
		if _, err := io.CopyN(crc, br, int64(length)); err != nil {
			return fmt.Errorf("png: truncated %s chunk: %w", chunkType, err)
		}
		if _, err := io.ReadFull(br, sum[:]); err != nil {
			return fmt.Errorf("png: missing %s checksum: %w", chunkType, err)
		}
		if binary.BigEndian.Uint32(sum[:]) != crc.Sum32() {
			return fmt.Errorf("png: checksum mismatch in %s chunk", chunkType)
		}
		if chunkType == "IEND" {
			return nil
		}
	}
}
